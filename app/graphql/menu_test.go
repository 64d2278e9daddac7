package graphql_test

import (
	"context"
	"encoding/json"
	"testing"

	gql "github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/app/graphql"
	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/database/factories"
	"github.com/cherrydine/cherrydine/database/migrations"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/testkit"
)

func run(t *testing.T, schema gql.Schema, query string) map[string]any {
	t.Helper()
	res := gql.Do(gql.Params{Schema: schema, RequestString: query, Context: context.Background()})
	require.False(t, res.HasErrors(), "%v", res.Errors)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestMenuQuery(t *testing.T) {
	db := testkit.DB(t, migrations.All()...)
	factories.MenuItem(t, db, "Brownie", models.CategoryDessert, "150")
	curry := factories.MenuItem(t, db, "Curry", models.CategoryMain, "320.5")
	factories.MenuItem(t, db, "Biryani", models.CategoryMain, "260")

	schema, err := graphql.NewSchema(services.NewCatalogService(db, cache.NewMemory(), nil))
	require.NoError(t, err)

	out := run(t, schema, `{ menu(category: main, sort: "-price") { total items { name price category } } }`)
	menu := out["menu"].(map[string]any)
	assert.EqualValues(t, 2, menu["total"])
	items := menu["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Curry", first["name"])
	assert.Equal(t, "320.50", first["price"])
	assert.Equal(t, "main", first["category"])

	out = run(t, schema, `{ dish(id: `+jsonID(curry.ID)+`) { name slug } missing: dish(id: 999) { name } categories }`)
	assert.Equal(t, "Curry", out["dish"].(map[string]any)["name"])
	assert.Nil(t, out["missing"])
	assert.Equal(t, []any{"starters", "main", "dessert"}, out["categories"])
}

func TestMenuQueryRejectsBadFilters(t *testing.T) {
	db := testkit.DB(t, migrations.All()...)
	schema, err := graphql.NewSchema(services.NewCatalogService(db, cache.NewMemory(), nil))
	require.NoError(t, err)

	for _, q := range []string{
		`{ menu(sort: "calories") { total } }`,
		`{ menu(minPrice: "cheap") { total } }`,
	} {
		res := gql.Do(gql.Params{Schema: schema, RequestString: q, Context: context.Background()})
		assert.True(t, res.HasErrors(), q)
	}
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

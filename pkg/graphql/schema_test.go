package graphql_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gql "github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/pkg/graphql"
)

func helloSchema(t *testing.T) gql.Schema {
	t.Helper()
	schema, err := graphql.NewSchema(gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"hello": &gql.Field{
				Type: gql.String,
				Args: gql.FieldConfigArgument{"name": &gql.ArgumentConfig{Type: gql.String, DefaultValue: "world"}},
				Resolve: func(p gql.ResolveParams) (any, error) {
					return "hello " + p.Args["name"].(string), nil
				},
			},
		},
	}))
	require.NoError(t, err)
	return schema
}

func TestHandler(t *testing.T) {
	h := graphql.Handler(helloSchema(t))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
		want   string
	}{
		{"post with variables", http.MethodPost, "/graphql",
			`{"query":"query($n:String){hello(name:$n)}","variables":{"n":"chef"}}`, 200, `{"data":{"hello":"hello chef"}}`},
		{"get", http.MethodGet, "/graphql?query=%7Bhello%7D", "", 200, `{"data":{"hello":"hello world"}}`},
		{"malformed", http.MethodPost, "/graphql", `{`, 400, ""},
		{"empty query", http.MethodPost, "/graphql", `{}`, 400, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandlerReportsResolverErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	graphql.Handler(helloSchema(t))(rec, httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"{nope}"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errors"`)
}

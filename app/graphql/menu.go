// Package graphql exposes the public menu as a read-only GraphQL schema.
package graphql

import (
	"errors"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/orm"
	schema "github.com/cherrydine/cherrydine/pkg/graphql"
)

var categoryEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "Category",
	Values: graphql.EnumValueConfigMap{
		"starters": &graphql.EnumValueConfig{Value: string(models.CategoryStarters)},
		"main":     &graphql.EnumValueConfig{Value: string(models.CategoryMain)},
		"dessert":  &graphql.EnumValueConfig{Value: string(models.CategoryDessert)},
	},
})

func menuItem(p graphql.ResolveParams) models.MenuItem {
	switch v := p.Source.(type) {
	case models.MenuItem:
		return v
	case *models.MenuItem:
		return *v
	}
	return models.MenuItem{}
}

var menuItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MenuItem",
	Fields: graphql.Fields{
		"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: func(p graphql.ResolveParams) (any, error) {
			return strconv.FormatUint(uint64(menuItem(p).ID), 10), nil
		}},
		"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: func(p graphql.ResolveParams) (any, error) {
			return menuItem(p).Name, nil
		}},
		"slug": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: func(p graphql.ResolveParams) (any, error) {
			return menuItem(p).Slug, nil
		}},
		"description": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (any, error) {
			return menuItem(p).Description, nil
		}},
		"category": &graphql.Field{Type: graphql.NewNonNull(categoryEnum), Resolve: func(p graphql.ResolveParams) (any, error) {
			return string(menuItem(p).Category), nil
		}},
		// price is a fixed two-decimal string so clients never see float rounding
		"price": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: func(p graphql.ResolveParams) (any, error) {
			return menuItem(p).Price.StringFixed(2), nil
		}},
		"imageUrl": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (any, error) {
			return menuItem(p).ImageURL, nil
		}},
	},
})

var menuPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MenuPage",
	Fields: graphql.Fields{
		"items":    &graphql.Field{Type: graphql.NewList(menuItemType)},
		"page":     &graphql.Field{Type: graphql.Int},
		"perPage":  &graphql.Field{Type: graphql.Int},
		"total":    &graphql.Field{Type: graphql.Int},
		"lastPage": &graphql.Field{Type: graphql.Int},
	},
})

func priceArg(args map[string]any, key string) (*decimal.Decimal, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.New(key + " must be a decimal number")
	}
	return &d, nil
}

// NewSchema builds the menu schema:
//
//	{ menu(category: main, sort: "-price") { items { name price } total } }
//	{ dish(id: 3) { name description } }
func NewSchema(catalog *services.CatalogService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"menu": &graphql.Field{
				Type: menuPageType,
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: categoryEnum},
					"minPrice": &graphql.ArgumentConfig{Type: graphql.String},
					"maxPrice": &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"perPage":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: orm.DefaultPerPage},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					f := repositories.MenuFilter{Page: p.Args["page"].(int), PerPage: p.Args["perPage"].(int)}
					if c, ok := p.Args["category"].(string); ok {
						f.Category = models.Category(c)
					}
					f.Search, _ = p.Args["search"].(string)
					f.Sort, _ = p.Args["sort"].(string)
					var err error
					if f.MinPrice, err = priceArg(p.Args, "minPrice"); err != nil {
						return nil, err
					}
					if f.MaxPrice, err = priceArg(p.Args, "maxPrice"); err != nil {
						return nil, err
					}

					items, page, err := catalog.List(p.Context, f)
					if err != nil {
						return nil, err
					}
					return map[string]any{
						"items":    items,
						"page":     page.Page,
						"perPage":  page.PerPage,
						"total":    int(page.Total),
						"lastPage": page.LastPage,
					}, nil
				},
			},
			"dish": &graphql.Field{
				Type: menuItemType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id := p.Args["id"].(int)
					if id < 1 {
						return nil, nil
					}
					item, err := catalog.Get(p.Context, uint(id))
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					return item, err
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryEnum),
				Resolve: func(graphql.ResolveParams) (any, error) {
					out := make([]string, 0, len(models.Categories))
					for _, c := range models.Categories {
						out = append(out, string(c))
					}
					return out, nil
				},
			},
		},
	})
	return schema.NewSchema(query)
}

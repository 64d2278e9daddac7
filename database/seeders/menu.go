package seeders

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cherrydine/cherrydine/app/models"
)

func init() {
	Register("menu", SeedMenu)
}

var sampleMenu = []struct {
	name, description, price string
	category                 models.Category
}{
	{"Tomato Bruschetta", "Grilled bread, tomato, basil and garlic.", "120.00", models.CategoryStarters},
	{"Paneer Tikka", "Char-grilled cottage cheese with peppers.", "180.00", models.CategoryStarters},
	{"Hot and Sour Soup", "", "110.00", models.CategoryStarters},
	{"Butter Chicken", "Tandoori chicken in a tomato and butter gravy.", "320.00", models.CategoryMain},
	{"Veg Biryani", "Basmati rice layered with vegetables and saffron.", "260.00", models.CategoryMain},
	{"Margherita Pizza", "", "299.00", models.CategoryMain},
	{"Gulab Jamun", "Two warm dumplings in rose syrup.", "90.00", models.CategoryDessert},
	{"Chocolate Brownie", "Served with vanilla ice cream.", "150.00", models.CategoryDessert},
}

// SeedMenu inserts the sample dishes, skipping slugs that already exist.
func SeedMenu(ctx context.Context, db *gorm.DB) error {
	items := make([]models.MenuItem, 0, len(sampleMenu))
	for _, m := range sampleMenu {
		items = append(items, models.MenuItem{
			Name:        m.name,
			Slug:        slug.Make(m.name),
			Description: m.description,
			Category:    m.category,
			Price:       decimal.RequireFromString(m.price),
		})
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&items).Error
}

package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Category string

const (
	CategoryStarters Category = "starters"
	CategoryMain     Category = "main"
	CategoryDessert  Category = "dessert"
)

var Categories = []Category{CategoryStarters, CategoryMain, CategoryDessert}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// MenuItem is soft deleted so historical line items can still resolve it.
type MenuItem struct {
	gorm.Model
	Name        string          `gorm:"size:100;not null;index" json:"name"`
	Slug        string          `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Category    Category        `gorm:"size:10;not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	ImageKey    string          `gorm:"size:255" json:"-"`
	ImageURL    string          `gorm:"size:512" json:"image_url,omitempty"`
}

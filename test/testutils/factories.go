// Package testutils provides seeded catalog factories shared by package tests.
package testutils

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/spiceshelf/shelf/internal/domain/spice"
)

// ShelfSpices is a small fixed shelf used by scenario tests.
var ShelfSpices = []spice.Spice{
	{Name: "Cumin", Alias: "Jeera", Color: "#a0522d"},
	{Name: "Turmeric", Alias: "Haldi", Color: "#e3a008"},
	{Name: "Coriander", Alias: "Dhania", Color: "#9c8f5b"},
	{Name: "Cardamom", Alias: "Elaichi", Color: "#7fa05b"},
	{Name: "Clove", Alias: "Laung", Color: "#5c3a21"},
	{Name: "Garam Masala", Alias: "", Color: "#8b4513"},
}

// ScenarioDishes pairs with ShelfSpices.
var ScenarioDishes = []spice.Dish{
	{
		Name: "Chana Masala", Region: "North", Category: "Curry", Heat: "Medium",
		Spices:   []string{"Cumin", "Turmeric", "Coriander"},
		ImageURL: "https://example.org/chana.jpg", WikiURL: "https://en.wikipedia.org/wiki/Chana_masala",
	},
	{
		Name: "Jeera Rice", Region: "North", Category: "Rice", Heat: "Mild",
		Spices: []string{"Cumin"},
	},
	{
		Name: "Masala Chai", Region: "Pan-India", Category: "Drink", Heat: "Mild",
		Spices: []string{"Cardamom", "Clove"},
	},
	{
		Name: "Dal Tadka", Region: "North", Category: "Dal", Heat: "Medium",
		Spices: []string{"Turmeric", "Cumin", "Garam Masala"},
	},
}

// ScenarioCatalog returns a fresh catalog of the fixed scenario data.
func ScenarioCatalog() *spice.Catalog {
	return spice.NewCatalog(ShelfSpices, ScenarioDishes)
}

// CatalogFactory produces random but reproducible catalogs.
type CatalogFactory struct {
	faker *gofakeit.Faker
}

// NewCatalogFactory creates a factory with a seeded faker
func NewCatalogFactory(seed int64) *CatalogFactory {
	return &CatalogFactory{faker: gofakeit.New(seed)}
}

// Spices returns n shelf entries with unique names.
func (f *CatalogFactory) Spices(n int) []spice.Spice {
	out := make([]spice.Spice, n)
	for i := range out {
		out[i] = spice.Spice{
			Name:  fmt.Sprintf("%s-%d", f.faker.Noun(), i),
			Alias: f.faker.Word(),
			Color: f.faker.HexColor(),
		}
	}
	return out
}

// Dishes returns n dishes drawing 1..maxSpices names from shelf.
func (f *CatalogFactory) Dishes(n int, shelf []spice.Spice, maxSpices int) []spice.Dish {
	out := make([]spice.Dish, n)
	for i := range out {
		out[i] = spice.Dish{
			Name:     fmt.Sprintf("%s %d", f.faker.Dessert(), i),
			Region:   f.faker.RandomString([]string{"North", "South", "East", "West"}),
			Category: f.faker.RandomString([]string{"Curry", "Rice", "Bread", "Snack"}),
			Heat:     f.faker.RandomString([]string{"Mild", "Medium", "Hot"}),
			Spices:   f.Pick(shelf, 1+f.faker.Number(0, maxSpices-1)),
		}
	}
	return out
}

// Pick returns up to k distinct spice names from shelf in random order.
func (f *CatalogFactory) Pick(shelf []spice.Spice, k int) []string {
	if k > len(shelf) {
		k = len(shelf)
	}
	names := make([]string, len(shelf))
	for i, s := range shelf {
		names[i] = s.Name
	}
	f.faker.ShuffleStrings(names)
	return names[:k]
}

// Catalog returns a random catalog.
func (f *CatalogFactory) Catalog(spices, dishes int) *spice.Catalog {
	shelf := f.Spices(spices)
	return spice.NewCatalog(shelf, f.Dishes(dishes, shelf, 5))
}

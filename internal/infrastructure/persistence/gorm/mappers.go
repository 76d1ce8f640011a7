package gorm

import (
	"github.com/spiceshelf/shelf/internal/domain/spice"
)

// SpiceToModel converts a domain spice to a GORM model
func SpiceToModel(s spice.Spice, position int) *SpiceModel {
	return &SpiceModel{
		Position: position,
		Name:     s.Name,
		Alias:    s.Alias,
		Color:    s.Color,
	}
}

// ModelToSpice converts a GORM model to a domain spice
func ModelToSpice(m *SpiceModel) spice.Spice {
	return spice.Spice{Name: m.Name, Alias: m.Alias, Color: m.Color}
}

// DishToModel converts a domain dish to a GORM model
func DishToModel(d spice.Dish, position int) *DishModel {
	return &DishModel{
		Position: position,
		Name:     d.Name,
		Region:   d.Region,
		Category: d.Category,
		Heat:     d.Heat,
		Spices:   StringSlice(append([]string(nil), d.Spices...)),
		ImageURL: d.ImageURL,
		WikiURL:  d.WikiURL,
	}
}

// ModelToDish converts a GORM model to a domain dish
func ModelToDish(m *DishModel) spice.Dish {
	return spice.Dish{
		Name:     m.Name,
		Region:   m.Region,
		Category: m.Category,
		Heat:     m.Heat,
		Spices:   []string(m.Spices),
		ImageURL: m.ImageURL,
		WikiURL:  m.WikiURL,
	}
}

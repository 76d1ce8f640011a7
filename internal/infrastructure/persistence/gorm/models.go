// Package gorm provides GORM model definitions for the catalog tables
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SpiceModel represents a row of the spices table
type SpiceModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Position  int       `gorm:"not null;index"`
	Name      string    `gorm:"type:varchar(255);not null;index"`
	Alias     string    `gorm:"type:varchar(255)"`
	Color     string    `gorm:"type:varchar(20)"`
	CreatedAt time.Time
}

// DishModel represents a row of the dishes table
type DishModel struct {
	ID        uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Position  int         `gorm:"not null;index"`
	Name      string      `gorm:"type:varchar(255);not null;index"`
	Region    string      `gorm:"type:varchar(100)"`
	Category  string      `gorm:"type:varchar(100)"`
	Heat      string      `gorm:"type:varchar(50)"`
	Spices    StringSlice `gorm:"type:json"`
	ImageURL  string      `gorm:"type:text"`
	WikiURL   string      `gorm:"type:text"`
	CreatedAt time.Time
}

// StringSlice stores a []string as a JSON array
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for SpiceModel
func (m *SpiceModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for DishModel
func (m *DishModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (SpiceModel) TableName() string {
	return "spices"
}

func (DishModel) TableName() string {
	return "dishes"
}

// Package gorm persists favorites through GORM.
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FavoriteModel is a recipe starred by a visitor. The recipe is stored in
// full so favorites survive after the suggestion list is replaced.
type FavoriteModel struct {
	ID                    uint        `gorm:"primaryKey"`
	Owner                 string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_favorite_owner_recipe"`
	RecipeID              string      `gorm:"type:char(36);not null;uniqueIndex:idx_favorite_owner_recipe"`
	Name                  string      `gorm:"type:varchar(255);not null"`
	Ingredients           StringSlice `gorm:"type:json"`
	Instructions          StringSlice `gorm:"type:json"`
	ImageURL              string      `gorm:"type:text"`
	EstimatedCookingTime  string      `gorm:"type:varchar(64)"`
	DietaryCategory       string      `gorm:"type:varchar(32)"`
	Difficulty            string      `gorm:"type:varchar(16)"`
	Cuisine               string      `gorm:"type:varchar(64)"`
	NutritionalHighlights StringSlice `gorm:"type:json"`
	Source                JSONField   `gorm:"type:json"`
	CreatedAt             time.Time   `gorm:"index"`
}

func (FavoriteModel) TableName() string { return "favorites" }

// StringSlice stores a list as a JSON array.
type StringSlice []string

func (s *StringSlice) Scan(src any) error {
	*s = StringSlice{}
	return scanJSON(src, s)
}

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		s = StringSlice{}
	}
	return valueJSON(s)
}

// JSONField stores a free-form object, such as a recipe's source link.
type JSONField map[string]any

func (j *JSONField) Scan(src any) error {
	*j = JSONField{}
	return scanJSON(src, j)
}

func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		j = JSONField{}
	}
	return valueJSON(j)
}

// scanJSON decodes a json column, which drivers hand back as text or bytes.
// NULL leaves dst untouched.
func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("scan json column: unsupported source %T", src)
	}
}

func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

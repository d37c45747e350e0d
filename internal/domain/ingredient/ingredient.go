// Package ingredient models the food items recognised in a photo or typed by a visitor.
package ingredient

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Status tracks whether the visitor has confirmed an identified ingredient.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ManualIDPrefix marks ingredients typed in by the visitor.
const ManualIDPrefix = "manual-"

var (
	ErrEmptyName     = errors.New("ingredient name is required")
	ErrInvalidStatus = errors.New("ingredient status must be pending, accepted or rejected")
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Ingredient is a single identified or manually entered food item.
type Ingredient struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Status     Status  `json:"status,omitempty"`
}

// NewManual creates an ingredient entered by hand. Manual entries are
// fully trusted and accepted immediately.
func NewManual(name string) (Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ingredient{}, ErrEmptyName
	}
	return Ingredient{
		ID:         ManualIDPrefix + uuid.NewString(),
		Name:       name,
		Confidence: 1.0,
		Status:     StatusAccepted,
	}, nil
}

// Key is the case-insensitive identity of an ingredient name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameName compares two names case-insensitively.
func SameName(a, b string) bool {
	return Key(a) == Key(b)
}

// Dedupe keeps the first occurrence of every name, ignoring case, and drops
// entries without a name. Missing or repeated IDs are replaced with fresh
// UUIDs and confidences are clamped to [0, 1]. The input order is preserved.
func Dedupe(items []Ingredient) []Ingredient {
	seen := make(map[string]struct{}, len(items))
	ids := make(map[string]struct{}, len(items))
	out := make([]Ingredient, 0, len(items))

	for _, item := range items {
		key := Key(item.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		item.Name = strings.TrimSpace(item.Name)
		item.ID = strings.TrimSpace(item.ID)
		if _, taken := ids[item.ID]; taken || item.ID == "" {
			item.ID = uuid.NewString()
		}
		ids[item.ID] = struct{}{}
		item.Confidence = clamp(item.Confidence)
		out = append(out, item)
	}

	return out
}

// Names returns the ingredient names in order.
func Names(items []Ingredient) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

// Accepted returns the ingredients the visitor has confirmed.
func Accepted(items []Ingredient) []Ingredient {
	var out []Ingredient
	for _, item := range items {
		if item.Status == StatusAccepted {
			out = append(out, item)
		}
	}
	return out
}

// Contains reports whether items already holds an ingredient called name.
func Contains(items []Ingredient, name string) bool {
	key := Key(name)
	for _, item := range items {
		if Key(item.Name) == key {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

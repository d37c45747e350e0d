package recipe

import "strings"

// Value Objects - Immutable objects that describe aspects of a recipe

// DietaryCategory classifies a recipe by the animal products it uses.
type DietaryCategory string

const (
	DietaryVegetarian    DietaryCategory = "Vegetarian"
	DietaryEggetarian    DietaryCategory = "Eggetarian"
	DietaryNonVegetarian DietaryCategory = "Non-Vegetarian"
)

// DietaryCategories lists the accepted values in display order.
var DietaryCategories = []DietaryCategory{DietaryVegetarian, DietaryEggetarian, DietaryNonVegetarian}

// ParseDietaryCategory maps model output onto a known category, ignoring case.
func ParseDietaryCategory(s string) (DietaryCategory, bool) {
	for _, c := range DietaryCategories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Difficulty is the cooking difficulty reported for enhanced suggestions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty maps model output onto a known difficulty, ignoring case.
func ParseDifficulty(s string) (Difficulty, bool) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, true
		}
	}
	return "", false
}

// SourceInfo records where an enhanced suggestion came from.
type SourceInfo struct {
	FromCatalog         bool    `json:"fromOpenFoodFacts"`
	Confidence          float64 `json:"confidence"`
	MatchingIngredients int     `json:"matchingIngredients"`
}

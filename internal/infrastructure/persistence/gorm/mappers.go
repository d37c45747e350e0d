package gorm

import (
	"github.com/harvestchef/harvest/internal/domain/recipe"
)

// FavoriteToModel maps a recipe onto its persisted favorite row.
func FavoriteToModel(owner string, r recipe.Recipe) *FavoriteModel {
	model := &FavoriteModel{
		Owner:                 owner,
		RecipeID:              r.ID,
		Name:                  r.Name,
		Ingredients:           StringSlice(r.Ingredients),
		Instructions:          StringSlice(r.Instructions),
		ImageURL:              r.ImageURL,
		EstimatedCookingTime:  r.EstimatedCookingTime,
		DietaryCategory:       string(r.DietaryCategory),
		Difficulty:            string(r.Difficulty),
		Cuisine:               r.Cuisine,
		NutritionalHighlights: StringSlice(r.NutritionalHighlights),
	}

	if r.SourceInfo != nil {
		model.Source = JSONField{
			"from_catalog":         r.SourceInfo.FromCatalog,
			"confidence":           r.SourceInfo.Confidence,
			"matching_ingredients": r.SourceInfo.MatchingIngredients,
		}
	}

	return model
}

// ModelToFavorite restores the recipe stored in a favorite row. The stored ID
// is kept as-is so it keeps matching the displayed suggestion.
func ModelToFavorite(model *FavoriteModel) recipe.Recipe {
	r := recipe.Recipe{
		ID:                    model.RecipeID,
		Name:                  model.Name,
		Ingredients:           []string(model.Ingredients),
		Instructions:          []string(model.Instructions),
		ImageURL:              model.ImageURL,
		EstimatedCookingTime:  model.EstimatedCookingTime,
		DietaryCategory:       recipe.DietaryCategory(model.DietaryCategory),
		Difficulty:            recipe.Difficulty(model.Difficulty),
		Cuisine:               model.Cuisine,
		NutritionalHighlights: []string(model.NutritionalHighlights),
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	if len(r.NutritionalHighlights) == 0 {
		r.NutritionalHighlights = nil
	}

	if len(model.Source) > 0 {
		info := &recipe.SourceInfo{}
		if v, ok := model.Source["from_catalog"].(bool); ok {
			info.FromCatalog = v
		}
		if v, ok := model.Source["confidence"].(float64); ok {
			info.Confidence = v
		}
		switch v := model.Source["matching_ingredients"].(type) {
		case float64:
			info.MatchingIngredients = int(v)
		case int:
			info.MatchingIngredients = v
		}
		r.SourceInfo = info
	}

	return r
}

package outbound

import (
	"context"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/nutrition"
)

// Product is a food product as returned by the food catalog.
type Product struct {
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	Brands          string            `json:"brands,omitempty"`
	Categories      string            `json:"categories,omitempty"`
	IngredientsText string            `json:"ingredients_text,omitempty"`
	ImageURL        string            `json:"image_url,omitempty"`
	Nutrition       *nutrition.Record `json:"nutrition,omitempty"`
	// HasNutriments is set when the catalog sent any nutriments object, even
	// one too sparse to fill Nutrition.
	HasNutriments bool `json:"-"`
}

// HasNutrition reports whether the product carries the required macros.
func (p Product) HasNutrition() bool {
	return p.Nutrition != nil
}

// RecipeMatch is a catalog product that overlaps with the visitor's ingredients.
type RecipeMatch struct {
	Product             Product  `json:"product"`
	Confidence          float64  `json:"confidence"`
	MatchingIngredients []string `json:"matchingIngredients"`
}

// FoodCatalog is the external food-data lookup service. Implementations
// absorb every failure: an unreachable catalog yields empty results.
type FoodCatalog interface {
	SearchProducts(ctx context.Context, query string, limit int) []Product
	GetProduct(ctx context.Context, barcode string) *Product
	GetNutritionalInfo(ctx context.Context, ingredient string) *nutrition.Record
	FindRecipesByIngredients(ctx context.Context, ingredients []string) []RecipeMatch
	GetIngredientAlternatives(ctx context.Context, ingredient string) []string
}

// Image is raw image content with its MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// RecipeIdea is a recipe as produced by the model, before images and IDs.
type RecipeIdea struct {
	Name                  string   `json:"name"`
	Ingredients           []string `json:"ingredients"`
	Instructions          []string `json:"instructions"`
	EstimatedCookingTime  string   `json:"estimatedCookingTime,omitempty"`
	DietaryCategory       string   `json:"dietaryCategory,omitempty"`
	ImagePrompt           string   `json:"imagePrompt,omitempty"`
	Difficulty            string   `json:"difficulty,omitempty"`
	Cuisine               string   `json:"cuisine,omitempty"`
	NutritionalHighlights []string `json:"nutritionalHighlights,omitempty"`
}

// EnhancedPrompt parameterises detailed recipe generation.
type EnhancedPrompt struct {
	Ingredients         []string
	PreferredCuisine    string
	DietaryRestrictions []string
	Count               int
}

// GenerativeModel is the generative AI backend.
type GenerativeModel interface {
	IdentifyIngredients(ctx context.Context, photo Image) ([]ingredient.Ingredient, error)
	SuggestRecipes(ctx context.Context, ingredients []string, count int) ([]RecipeIdea, error)
	FindRecipes(ctx context.Context, query string, count int) ([]RecipeIdea, error)
	EnhancedRecipes(ctx context.Context, prompt EnhancedPrompt) ([]RecipeIdea, error)
	EstimateNutrition(ctx context.Context, recipeName string, ingredients []string) (nutrition.Record, error)
	AnalyzeRecipe(ctx context.Context, recipeName string, ingredients []string) (nutrition.Estimate, error)
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

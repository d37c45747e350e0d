// Package mocks provides testify mocks for the outbound ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/nutrition"
	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

// GenerativeModel is a mock implementation of outbound.GenerativeModel
type GenerativeModel struct {
	mock.Mock
}

var _ outbound.GenerativeModel = (*GenerativeModel)(nil)

func (m *GenerativeModel) IdentifyIngredients(ctx context.Context, photo outbound.Image) ([]ingredient.Ingredient, error) {
	args := m.Called(ctx, photo)
	items, _ := args.Get(0).([]ingredient.Ingredient)
	return items, args.Error(1)
}

func (m *GenerativeModel) SuggestRecipes(ctx context.Context, ingredients []string, count int) ([]outbound.RecipeIdea, error) {
	args := m.Called(ctx, ingredients, count)
	ideas, _ := args.Get(0).([]outbound.RecipeIdea)
	return ideas, args.Error(1)
}

func (m *GenerativeModel) FindRecipes(ctx context.Context, query string, count int) ([]outbound.RecipeIdea, error) {
	args := m.Called(ctx, query, count)
	ideas, _ := args.Get(0).([]outbound.RecipeIdea)
	return ideas, args.Error(1)
}

func (m *GenerativeModel) EnhancedRecipes(ctx context.Context, prompt outbound.EnhancedPrompt) ([]outbound.RecipeIdea, error) {
	args := m.Called(ctx, prompt)
	ideas, _ := args.Get(0).([]outbound.RecipeIdea)
	return ideas, args.Error(1)
}

func (m *GenerativeModel) EstimateNutrition(ctx context.Context, recipeName string, ingredients []string) (nutrition.Record, error) {
	args := m.Called(ctx, recipeName, ingredients)
	rec, _ := args.Get(0).(nutrition.Record)
	return rec, args.Error(1)
}

func (m *GenerativeModel) AnalyzeRecipe(ctx context.Context, recipeName string, ingredients []string) (nutrition.Estimate, error) {
	args := m.Called(ctx, recipeName, ingredients)
	est, _ := args.Get(0).(nutrition.Estimate)
	return est, args.Error(1)
}

func (m *GenerativeModel) GenerateImage(ctx context.Context, prompt string) (outbound.Image, error) {
	args := m.Called(ctx, prompt)
	img, _ := args.Get(0).(outbound.Image)
	return img, args.Error(1)
}

// FoodCatalog is a mock implementation of outbound.FoodCatalog
type FoodCatalog struct {
	mock.Mock
}

var _ outbound.FoodCatalog = (*FoodCatalog)(nil)

func (m *FoodCatalog) SearchProducts(ctx context.Context, query string, limit int) []outbound.Product {
	args := m.Called(ctx, query, limit)
	products, _ := args.Get(0).([]outbound.Product)
	return products
}

func (m *FoodCatalog) GetProduct(ctx context.Context, barcode string) *outbound.Product {
	args := m.Called(ctx, barcode)
	p, _ := args.Get(0).(*outbound.Product)
	return p
}

func (m *FoodCatalog) GetNutritionalInfo(ctx context.Context, name string) *nutrition.Record {
	args := m.Called(ctx, name)
	rec, _ := args.Get(0).(*nutrition.Record)
	return rec
}

func (m *FoodCatalog) FindRecipesByIngredients(ctx context.Context, ingredients []string) []outbound.RecipeMatch {
	args := m.Called(ctx, ingredients)
	matches, _ := args.Get(0).([]outbound.RecipeMatch)
	return matches
}

func (m *FoodCatalog) GetIngredientAlternatives(ctx context.Context, name string) []string {
	args := m.Called(ctx, name)
	alts, _ := args.Get(0).([]string)
	return alts
}

// ImageStore is a mock implementation of outbound.ImageStore
type ImageStore struct {
	mock.Mock
}

var _ outbound.ImageStore = (*ImageStore)(nil)

func (m *ImageStore) Store(ctx context.Context, key string, img outbound.Image) (string, error) {
	args := m.Called(ctx, key, img)
	return args.String(0), args.Error(1)
}

// CacheRepository is a mock implementation of outbound.CacheRepository
type CacheRepository struct {
	mock.Mock
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

func (m *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *CacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// FavoriteRepository is a mock implementation of outbound.FavoriteRepository
type FavoriteRepository struct {
	mock.Mock
}

var _ outbound.FavoriteRepository = (*FavoriteRepository)(nil)

func (m *FavoriteRepository) List(ctx context.Context, owner string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, owner)
	recipes, _ := args.Get(0).([]recipe.Recipe)
	return recipes, args.Error(1)
}

func (m *FavoriteRepository) Add(ctx context.Context, owner string, r recipe.Recipe) error {
	args := m.Called(ctx, owner, r)
	return args.Error(0)
}

func (m *FavoriteRepository) Remove(ctx context.Context, owner, recipeID string) error {
	args := m.Called(ctx, owner, recipeID)
	return args.Error(0)
}

func (m *FavoriteRepository) Exists(ctx context.Context, owner, recipeID string) (bool, error) {
	args := m.Called(ctx, owner, recipeID)
	return args.Bool(0), args.Error(1)
}

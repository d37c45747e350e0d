// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/nutrition"
	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/domain/workspace"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

// IngredientIdentifier turns a photo into a de-duplicated ingredient list.
type IngredientIdentifier interface {
	Identify(ctx context.Context, photo outbound.Image) ([]ingredient.Ingredient, error)
}

// RecipeService generates recipe suggestions.
type RecipeService interface {
	SuggestByIngredients(ctx context.Context, ingredients []string) ([]recipe.Recipe, error)
	FindByName(ctx context.Context, query string) ([]recipe.Recipe, error)
	Enhanced(ctx context.Context, cmd EnhancedCommand) ([]recipe.Recipe, error)
}

// NutritionService produces nutritional analyses for a recipe.
type NutritionService interface {
	Reconcile(ctx context.Context, cmd ReconcileCommand) (*nutrition.Analysis, error)
	Analyze(ctx context.Context, recipeName string, ingredients []string) (*nutrition.Analysis, error)
}

// WorkspaceService drives a visitor's ingredient and recipe working set.
type WorkspaceService interface {
	Get(ctx context.Context, owner string) (*workspace.Workspace, error)
	Identify(ctx context.Context, owner string, photo outbound.Image) (*workspace.Workspace, error)
	AddIngredient(ctx context.Context, owner, name string) (*workspace.Workspace, error)
	UpdateIngredient(ctx context.Context, cmd UpdateIngredientCommand) (*workspace.Workspace, error)
	RemoveIngredient(ctx context.Context, owner, id string) (*workspace.Workspace, error)
	SuggestRecipes(ctx context.Context, owner string) (*workspace.Workspace, error)
	SearchRecipes(ctx context.Context, owner, query string) (*workspace.Workspace, error)
}

// FavoritesService manages starred recipes per visitor.
type FavoritesService interface {
	List(ctx context.Context, owner string) ([]recipe.Recipe, error)
	Toggle(ctx context.Context, owner string, r recipe.Recipe) (favorited bool, err error)
	Remove(ctx context.Context, owner, recipeID string) error
}

// EnhancedCommand asks for blended catalog and AI suggestions.
type EnhancedCommand struct {
	Ingredients         []string
	UseCatalog          bool
	PreferredCuisine    string
	DietaryRestrictions []string
}

// ReconcileCommand asks for a hybrid nutritional analysis.
type ReconcileCommand struct {
	RecipeName  string
	Ingredients []string
	Servings    int
}

// UpdateIngredientCommand edits one workspace ingredient. Nil fields are left unchanged.
type UpdateIngredientCommand struct {
	Owner  string
	ID     string
	Name   *string
	Status *ingredient.Status
}

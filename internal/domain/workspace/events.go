package workspace

import "github.com/harvestchef/harvest/internal/domain/shared"

// IngredientsIdentified is raised when a photo identification replaces the list.
type IngredientsIdentified struct {
	shared.BaseEvent
	Owner string
	Count int
}

// EventName implements shared.Event.
func (IngredientsIdentified) EventName() string { return "workspace.ingredients_identified" }

// IngredientAdded is raised for manual additions.
type IngredientAdded struct {
	shared.BaseEvent
	Owner string
	Name  string
}

// EventName implements shared.Event.
func (IngredientAdded) EventName() string { return "workspace.ingredient_added" }

// IngredientRemoved is raised when an ingredient is deleted.
type IngredientRemoved struct {
	shared.BaseEvent
	Owner string
	Name  string
}

// EventName implements shared.Event.
func (IngredientRemoved) EventName() string { return "workspace.ingredient_removed" }

// RecipesReplaced is raised whenever a new recipe list is displayed.
type RecipesReplaced struct {
	shared.BaseEvent
	Owner string
	Query string
	Count int
}

// EventName implements shared.Event.
func (RecipesReplaced) EventName() string { return "workspace.recipes_replaced" }

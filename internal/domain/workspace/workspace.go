// Package workspace models one visitor's working set: the ingredients they are
// curating and the recipes most recently suggested for them.
//
// Every long-running action (identification, recipe generation) is started
// with Begin, which hands out a token for its slot. Results are applied only
// while that token is still the newest one, so a slow response can never
// overwrite the outcome of a later action.
package workspace

import (
	"errors"
	"strings"
	"time"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/domain/shared"
)

// Slot names an independent stream of requests.
type Slot string

const (
	SlotIdentify Slot = "identify"
	SlotRecipes  Slot = "recipes"
)

var (
	ErrStaleRequest          = errors.New("request was superseded by a newer one")
	ErrIngredientNotFound    = errors.New("ingredient not found")
	ErrNoAcceptedIngredients = errors.New("no accepted ingredients")
	ErrDuplicateIngredient   = errors.New("an ingredient with that name already exists")
)

// Workspace is the aggregate root for a visitor's session state.
type Workspace struct {
	shared.AggregateRoot `json:"-"`

	Owner       string                  `json:"owner"`
	Ingredients []ingredient.Ingredient `json:"ingredients"`
	Recipes     []recipe.Recipe         `json:"recipes"`
	Query       string                  `json:"query,omitempty"`
	Tokens      map[Slot]uint64         `json:"tokens"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// New returns an empty workspace for owner.
func New(owner string) *Workspace {
	return &Workspace{
		Owner:       owner,
		Ingredients: []ingredient.Ingredient{},
		Recipes:     []recipe.Recipe{},
		Tokens:      map[Slot]uint64{},
		UpdatedAt:   time.Now(),
	}
}

// Begin starts a new request in slot and returns its token. Any request
// already running in the slot becomes stale.
func (w *Workspace) Begin(slot Slot) uint64 {
	if w.Tokens == nil {
		w.Tokens = map[Slot]uint64{}
	}
	w.Tokens[slot]++
	return w.Tokens[slot]
}

// IsCurrent reports whether token is the newest one issued for slot.
func (w *Workspace) IsCurrent(slot Slot, token uint64) bool {
	return token != 0 && w.Tokens[slot] == token
}

// ApplyIdentification replaces the ingredient list with a fresh identification
// result. Previous suggestions are cleared and pending recipe requests are
// invalidated, since they were built from the old list.
func (w *Workspace) ApplyIdentification(token uint64, items []ingredient.Ingredient) error {
	if !w.IsCurrent(SlotIdentify, token) {
		return ErrStaleRequest
	}

	identified := make([]ingredient.Ingredient, 0, len(items))
	for _, item := range items {
		item.Status = ingredient.StatusPending
		identified = append(identified, item)
	}

	w.Ingredients = identified
	w.Recipes = []recipe.Recipe{}
	w.Query = ""
	w.Begin(SlotRecipes)
	w.touch()
	w.Record(IngredientsIdentified{BaseEvent: shared.Now(), Owner: w.Owner, Count: len(identified)})
	return nil
}

// ApplyRecipes replaces the displayed recipes. query is empty for
// ingredient-based suggestions.
func (w *Workspace) ApplyRecipes(token uint64, query string, recipes []recipe.Recipe) error {
	if !w.IsCurrent(SlotRecipes, token) {
		return ErrStaleRequest
	}

	w.Recipes = append([]recipe.Recipe{}, recipes...)
	w.Query = strings.TrimSpace(query)
	w.touch()
	w.Record(RecipesReplaced{BaseEvent: shared.Now(), Owner: w.Owner, Query: w.Query, Count: len(recipes)})
	return nil
}

// AddManual appends a hand-typed ingredient. When an ingredient with the
// same name already exists it is returned unchanged and added is false.
func (w *Workspace) AddManual(name string) (item ingredient.Ingredient, added bool, err error) {
	for _, existing := range w.Ingredients {
		if ingredient.SameName(existing.Name, name) {
			return existing, false, nil
		}
	}

	item, err = ingredient.NewManual(name)
	if err != nil {
		return ingredient.Ingredient{}, false, err
	}

	w.Ingredients = append(w.Ingredients, item)
	w.touch()
	w.Record(IngredientAdded{BaseEvent: shared.Now(), Owner: w.Owner, Name: item.Name})
	return item, true, nil
}

// Rename changes an ingredient's name. Saving an edit also accepts it.
func (w *Workspace) Rename(id, name string) (ingredient.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ingredient.Ingredient{}, ingredient.ErrEmptyName
	}

	idx := w.indexOf(id)
	if idx < 0 {
		return ingredient.Ingredient{}, ErrIngredientNotFound
	}

	for i, other := range w.Ingredients {
		if i != idx && ingredient.SameName(other.Name, name) {
			return ingredient.Ingredient{}, ErrDuplicateIngredient
		}
	}

	w.Ingredients[idx].Name = name
	w.Ingredients[idx].Status = ingredient.StatusAccepted
	w.touch()
	return w.Ingredients[idx], nil
}

// SetStatus accepts or rejects an ingredient.
func (w *Workspace) SetStatus(id string, status ingredient.Status) (ingredient.Ingredient, error) {
	if !status.Valid() {
		return ingredient.Ingredient{}, ingredient.ErrInvalidStatus
	}

	idx := w.indexOf(id)
	if idx < 0 {
		return ingredient.Ingredient{}, ErrIngredientNotFound
	}

	w.Ingredients[idx].Status = status
	w.touch()
	return w.Ingredients[idx], nil
}

// Remove deletes an ingredient.
func (w *Workspace) Remove(id string) error {
	idx := w.indexOf(id)
	if idx < 0 {
		return ErrIngredientNotFound
	}

	name := w.Ingredients[idx].Name
	w.Ingredients = append(w.Ingredients[:idx], w.Ingredients[idx+1:]...)
	w.touch()
	w.Record(IngredientRemoved{BaseEvent: shared.Now(), Owner: w.Owner, Name: name})
	return nil
}

// AcceptedNames returns the names recipes should be built from.
func (w *Workspace) AcceptedNames() ([]string, error) {
	names := ingredient.Names(ingredient.Accepted(w.Ingredients))
	if len(names) == 0 {
		return nil, ErrNoAcceptedIngredients
	}
	return names, nil
}

// Recipe looks up a displayed recipe by ID.
func (w *Workspace) Recipe(id string) (recipe.Recipe, bool) {
	for _, r := range w.Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

func (w *Workspace) indexOf(id string) int {
	for i, item := range w.Ingredients {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) touch() {
	w.UpdatedAt = time.Now()
}

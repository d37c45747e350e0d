package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/ports/inbound"
)

// RecipeHandlers serves stateless recipe generation
type RecipeHandlers struct {
	responder
	recipes inbound.RecipeService
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(recipes inbound.RecipeService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		responder: responder{logger: logger.Named("recipe-handlers")},
		recipes:   recipes,
	}
}

// SuggestRequest lists the ingredients to cook with
type SuggestRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=50,dive,ingredient"`
}

// SearchRequest is a free-text recipe query
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

// EnhancedRequest asks for catalog and AI suggestions together
type EnhancedRequest struct {
	Ingredients         []string `json:"ingredients" validate:"required,min=1,max=50,dive,ingredient"`
	UseCatalog          *bool    `json:"use_catalog"`
	PreferredCuisine    string   `json:"preferred_cuisine" validate:"max=64"`
	DietaryRestrictions []string `json:"dietary_restrictions" validate:"max=10,dive,max=64"`
}

// Suggest handles POST /api/v1/recipes/suggest
func (h *RecipeHandlers) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	recipes, err := h.recipes.SuggestByIngredients(r.Context(), req.Ingredients)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"recipes": recipes})
}

// Search handles POST /api/v1/recipes/search
func (h *RecipeHandlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	recipes, err := h.recipes.FindByName(r.Context(), req.Query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"recipes": recipes})
}

// Enhanced handles POST /api/v1/recipes/enhanced. The catalog is consulted
// unless use_catalog is explicitly false.
func (h *RecipeHandlers) Enhanced(w http.ResponseWriter, r *http.Request) {
	var req EnhancedRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	useCatalog := true
	if req.UseCatalog != nil {
		useCatalog = *req.UseCatalog
	}

	recipes, err := h.recipes.Enhanced(r.Context(), inbound.EnhancedCommand{
		Ingredients:         req.Ingredients,
		UseCatalog:          useCatalog,
		PreferredCuisine:    req.PreferredCuisine,
		DietaryRestrictions: req.DietaryRestrictions,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"recipes": recipes})
}

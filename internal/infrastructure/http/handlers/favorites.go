package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/ports/inbound"
)

// FavoriteHandlers serves the visitor's starred recipes
type FavoriteHandlers struct {
	responder
	favorites inbound.FavoritesService
}

// NewFavoriteHandlers creates a new favorites handlers instance
func NewFavoriteHandlers(favorites inbound.FavoritesService, logger *zap.Logger) *FavoriteHandlers {
	return &FavoriteHandlers{
		responder: responder{logger: logger.Named("favorite-handlers")},
		favorites: favorites,
	}
}

// ToggleFavoriteRequest carries the recipe as displayed
type ToggleFavoriteRequest struct {
	Recipe *recipe.Recipe `json:"recipe" validate:"required"`
}

// List handles GET /api/v1/favorites
func (h *FavoriteHandlers) List(w http.ResponseWriter, r *http.Request) {
	owner, err := visitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recipes, err := h.favorites.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"favorites": recipes})
}

// Toggle handles POST /api/v1/favorites/toggle
func (h *FavoriteHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	owner, err := visitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req ToggleFavoriteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec := *req.Recipe
	if rec.ID == "" {
		rec.ID = recipe.StableID(rec.Name, rec.Ingredients, rec.Instructions)
	}

	favorited, err := h.favorites.Toggle(r.Context(), owner, rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{
		"favorited": favorited,
		"recipe_id": rec.ID,
	})
}

// Remove handles DELETE /api/v1/favorites/{id}
func (h *FavoriteHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	owner, err := visitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.favorites.Remove(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, nil)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/application/identify"
	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/workspace"
	"github.com/harvestchef/harvest/internal/ports/inbound"
)

// WorkspaceHandlers serves the visitor's session working set
type WorkspaceHandlers struct {
	responder
	workspace inbound.WorkspaceService
}

// NewWorkspaceHandlers creates a new workspace handlers instance
func NewWorkspaceHandlers(ws inbound.WorkspaceService, logger *zap.Logger) *WorkspaceHandlers {
	return &WorkspaceHandlers{
		responder: responder{logger: logger.Named("workspace-handlers")},
		workspace: ws,
	}
}

// AddIngredientRequest adds a hand-typed ingredient
type AddIngredientRequest struct {
	Name string `json:"name" validate:"required,ingredient"`
}

// UpdateIngredientRequest edits an ingredient. Omitted fields are unchanged.
type UpdateIngredientRequest struct {
	Name   *string `json:"name" validate:"omitnil,ingredient"`
	Status *string `json:"status" validate:"omitnil,oneof=pending accepted rejected"`
}

// Get handles GET /api/v1/workspace
func (h *WorkspaceHandlers) Get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		return h.workspace.Get(r.Context(), owner)
	})
}

// Identify handles POST /api/v1/workspace/identify
func (h *WorkspaceHandlers) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		photo, err := identify.PhotoFromDataURI(req.Image)
		if err != nil {
			return nil, err
		}
		return h.workspace.Identify(r.Context(), owner, photo)
	})
}

// AddIngredient handles POST /api/v1/workspace/ingredients
func (h *WorkspaceHandlers) AddIngredient(w http.ResponseWriter, r *http.Request) {
	var req AddIngredientRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		return h.workspace.AddIngredient(r.Context(), owner, req.Name)
	})
}

// UpdateIngredient handles PATCH /api/v1/workspace/ingredients/{id}
func (h *WorkspaceHandlers) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	var req UpdateIngredientRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		cmd := inbound.UpdateIngredientCommand{
			Owner: owner,
			ID:    chi.URLParam(r, "id"),
			Name:  req.Name,
		}
		if req.Status != nil {
			status := ingredient.Status(*req.Status)
			cmd.Status = &status
		}
		return h.workspace.UpdateIngredient(r.Context(), cmd)
	})
}

// RemoveIngredient handles DELETE /api/v1/workspace/ingredients/{id}
func (h *WorkspaceHandlers) RemoveIngredient(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		return h.workspace.RemoveIngredient(r.Context(), owner, chi.URLParam(r, "id"))
	})
}

// Suggest handles POST /api/v1/workspace/suggest
func (h *WorkspaceHandlers) Suggest(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		return h.workspace.SuggestRecipes(r.Context(), owner)
	})
}

// Search handles POST /api/v1/workspace/search
func (h *WorkspaceHandlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.run(w, r, func(owner string) (*workspace.Workspace, error) {
		return h.workspace.SearchRecipes(r.Context(), owner, req.Query)
	})
}

func (h *WorkspaceHandlers) run(w http.ResponseWriter, r *http.Request, fn func(owner string) (*workspace.Workspace, error)) {
	owner, err := visitor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ws, err := fn(owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"workspace": ws})
}

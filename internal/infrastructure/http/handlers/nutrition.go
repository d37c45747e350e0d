package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/ports/inbound"
)

// NutritionHandlers serves nutritional analyses
type NutritionHandlers struct {
	responder
	nutrition inbound.NutritionService
}

// NewNutritionHandlers creates a new nutrition handlers instance
func NewNutritionHandlers(nutrition inbound.NutritionService, logger *zap.Logger) *NutritionHandlers {
	return &NutritionHandlers{
		responder: responder{logger: logger.Named("nutrition-handlers")},
		nutrition: nutrition,
	}
}

// AnalyzeRequest asks for a model-only analysis
type AnalyzeRequest struct {
	RecipeName  string   `json:"recipe_name" validate:"required,max=200"`
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=50,dive,ingredient"`
}

// ReconcileRequest asks for a catalog and model analysis
type ReconcileRequest struct {
	RecipeName  string   `json:"recipe_name" validate:"required,max=200"`
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=50,dive,ingredient"`
	Servings    int      `json:"servings" validate:"min=0,max=100"`
}

// Analyze handles POST /api/v1/nutrition/analyze
func (h *NutritionHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	analysis, err := h.nutrition.Analyze(r.Context(), req.RecipeName, req.Ingredients)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"nutrition": analysis})
}

// Reconcile handles POST /api/v1/nutrition/reconcile
func (h *NutritionHandlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	analysis, err := h.nutrition.Reconcile(r.Context(), inbound.ReconcileCommand{
		RecipeName:  req.RecipeName,
		Ingredients: req.Ingredients,
		Servings:    req.Servings,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"nutrition": analysis})
}

package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/application/identify"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/errors"
)

const (
	defaultProductLimit = 5
	maxProductLimit     = 50
)

// CatalogHandlers serves ingredient identification and food catalog lookups
type CatalogHandlers struct {
	responder
	identifier inbound.IngredientIdentifier
	catalog    outbound.FoodCatalog
}

// NewCatalogHandlers creates a new catalog handlers instance
func NewCatalogHandlers(identifier inbound.IngredientIdentifier, catalog outbound.FoodCatalog, logger *zap.Logger) *CatalogHandlers {
	return &CatalogHandlers{
		responder:  responder{logger: logger.Named("catalog-handlers")},
		identifier: identifier,
		catalog:    catalog,
	}
}

// IdentifyRequest carries a photo as a data URI
type IdentifyRequest struct {
	Image string `json:"image" validate:"required,startswith=data:"`
}

// TestNutritionRequest names one ingredient to look up
type TestNutritionRequest struct {
	Ingredient string `json:"ingredient" validate:"required,ingredient"`
}

// productSummary is the trimmed product shape of the catalog test endpoint.
type productSummary struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Brands       string `json:"brands"`
	Categories   string `json:"categories"`
	ImageURL     string `json:"image_url"`
	HasNutrition bool   `json:"has_nutrition"`
}

// Identify handles POST /api/v1/ingredients/identify
func (h *CatalogHandlers) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	photo, err := identify.PhotoFromDataURI(req.Image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.identifier.Identify(r.Context(), photo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeOK(w, map[string]interface{}{"ingredients": items})
}

// Alternatives handles GET /api/v1/ingredients/{name}/alternatives
func (h *CatalogHandlers) Alternatives(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	name = strings.TrimSpace(name)
	if err != nil || name == "" {
		h.writeError(w, r, errors.NewValidationError("ingredient name is required"))
		return
	}

	alternatives := h.catalog.GetIngredientAlternatives(r.Context(), name)
	if alternatives == nil {
		alternatives = []string{}
	}

	h.writeOK(w, map[string]interface{}{
		"ingredient":   name,
		"alternatives": alternatives,
	})
}

// Product handles GET /api/v1/products/{code}
func (h *CatalogHandlers) Product(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" || strings.Trim(code, "0123456789") != "" {
		h.writeError(w, r, errors.NewValidationError("barcode must be numeric"))
		return
	}

	product := h.catalog.GetProduct(r.Context(), code)
	if product == nil {
		h.writeError(w, r, errors.NewProductNotFoundError(code))
		return
	}

	h.writeOK(w, map[string]interface{}{"product": product})
}

// TestNutrition handles POST /api/test-nutrition
func (h *CatalogHandlers) TestNutrition(w http.ResponseWriter, r *http.Request) {
	var req TestNutritionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Ingredient)

	info := h.catalog.GetNutritionalInfo(r.Context(), name)

	h.writeOK(w, map[string]interface{}{
		"ingredient":      name,
		"nutritionalInfo": info,
		"hasData":         info != nil,
	})
}

// TestOpenFoodFacts handles GET /api/test-open-food-facts
func (h *CatalogHandlers) TestOpenFoodFacts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, r, errors.NewValidationError("query parameter q is required"))
		return
	}

	limit := defaultProductLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, r, errors.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxProductLimit)
	}

	products := h.catalog.SearchProducts(r.Context(), query, limit)
	summaries := make([]productSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, productSummary{
			Code:         p.Code,
			Name:         p.Name,
			Brands:       p.Brands,
			Categories:   p.Categories,
			ImageURL:     p.ImageURL,
			HasNutrition: p.HasNutriments || p.HasNutrition(),
		})
	}

	h.writeOK(w, map[string]interface{}{
		"query":    query,
		"count":    len(summaries),
		"products": summaries,
	})
}

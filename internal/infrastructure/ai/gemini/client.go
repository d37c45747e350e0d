// Package gemini provides the Gemini integration behind outbound.GenerativeModel:
// structured recipe and nutrition generation, ingredient recognition from
// photos and recipe image generation.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/nutrition"
	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

var (
	// ErrEmptyResponse is returned when the model produced no usable candidate.
	ErrEmptyResponse = errors.New("gemini: empty response")
	// ErrIncompleteResponse is returned when the model output lacks a field
	// its response schema requires.
	ErrIncompleteResponse = errors.New("gemini: response is missing required fields")
	// ErrNoImage is returned when an image request yielded no image part.
	ErrNoImage = errors.New("gemini: response contained no image")
)

// generator is the subset of *genai.Models the client calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements outbound.GenerativeModel on the Gemini API or Vertex AI.
type Client struct {
	models      generator
	textModel   string
	imageModel  string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *monitoring.MetricsCollector
}

var _ outbound.GenerativeModel = (*Client)(nil)

// NewClient creates a client for the configured backend.
func NewClient(ctx context.Context, cfg config.AIConfig, logger *zap.Logger, metrics *monitoring.MetricsCollector) (*Client, error) {
	cc := &genai.ClientConfig{}
	switch cfg.Backend {
	case "vertex":
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	default:
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
		cc.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	logger.Info("Gemini client initialized",
		zap.String("backend", cfg.Backend),
		zap.String("text_model", cfg.TextModel),
		zap.String("image_model", cfg.ImageModel))

	return newClient(gc.Models, cfg, logger, metrics), nil
}

func newClient(models generator, cfg config.AIConfig, logger *zap.Logger, metrics *monitoring.MetricsCollector) *Client {
	return &Client{
		models:      models,
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("gemini"),
		metrics:     metrics,
	}
}

// IdentifyIngredients asks the model to list the food items in a photo.
func (c *Client) IdentifyIngredients(ctx context.Context, photo outbound.Image) ([]ingredient.Ingredient, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(photo.Data, photo.MIMEType),
			genai.NewPartFromText(identifyPrompt),
		}, genai.RoleUser),
	}

	var out struct {
		Ingredients []ingredient.Ingredient `json:"ingredients"`
	}
	if err := c.generateJSON(ctx, "identify_ingredients", contents, identifySchema, nil, &out); err != nil {
		return nil, err
	}
	return out.Ingredients, nil
}

// SuggestRecipes generates count recipes restricted to the given ingredients.
func (c *Client) SuggestRecipes(ctx context.Context, ingredients []string, count int) ([]outbound.RecipeIdea, error) {
	return c.recipes(ctx, "suggest_recipes", suggestPrompt(ingredients, count), false)
}

// FindRecipes generates count recipes matching a free-text query.
func (c *Client) FindRecipes(ctx context.Context, query string, count int) ([]outbound.RecipeIdea, error) {
	return c.recipes(ctx, "find_recipes", findPrompt(query, count), false)
}

// EnhancedRecipes generates detailed recipes with difficulty, cuisine and highlights.
func (c *Client) EnhancedRecipes(ctx context.Context, p outbound.EnhancedPrompt) ([]outbound.RecipeIdea, error) {
	prompt := enhancedPrompt(p.Ingredients, p.PreferredCuisine, p.DietaryRestrictions, p.Count)
	return c.recipes(ctx, "enhanced_recipes", prompt, true)
}

func (c *Client) recipes(ctx context.Context, operation, prompt string, enhanced bool) ([]outbound.RecipeIdea, error) {
	var out struct {
		Recipes []outbound.RecipeIdea `json:"recipes"`
	}
	if err := c.generateJSON(ctx, operation, genai.Text(prompt), recipesSchema(enhanced), recipeSafety, &out); err != nil {
		return nil, err
	}
	return out.Recipes, nil
}

// EstimateNutrition returns total macros for ingredients the catalog did not cover.
func (c *Client) EstimateNutrition(ctx context.Context, recipeName string, ingredients []string) (nutrition.Record, error) {
	var out nutrition.Record
	err := c.generateJSON(ctx, "estimate_nutrition", genai.Text(estimatePrompt(recipeName, ingredients)), estimateSchema, nutritionSafety, &out)
	if err != nil {
		return nutrition.Record{}, err
	}
	return out, nil
}

// AnalyzeRecipe returns a formatted per-serving analysis of a whole recipe.
func (c *Client) AnalyzeRecipe(ctx context.Context, recipeName string, ingredients []string) (nutrition.Estimate, error) {
	var out nutrition.Estimate
	err := c.generateJSON(ctx, "analyze_recipe", genai.Text(analyzePrompt(recipeName, ingredients)), analysisSchema, nutritionSafety, &out)
	if err != nil {
		return nutrition.Estimate{}, err
	}
	if !out.HasCalories() {
		return nutrition.Estimate{}, fmt.Errorf("gemini: analyze_recipe: %w: blank calories", ErrIncompleteResponse)
	}
	return out, nil
}

// GenerateImage renders a picture for prompt and returns the first image part.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (outbound.Image, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ctx, span := monitoring.StartSpan(ctx, "gemini.generate_image",
		attribute.String("gen_ai.system", "gemini"),
		attribute.String("gen_ai.request.model", c.imageModel),
	)
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.imageModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err == nil {
		var img outbound.Image
		img, err = firstImage(resp)
		if err == nil {
			c.metrics.AIRequest("generate_image", nil, time.Since(start))
			monitoring.EndSpan(span, nil)
			return img, nil
		}
	}

	c.metrics.AIRequest("generate_image", err, time.Since(start))
	monitoring.EndSpan(span, err)
	c.logger.Warn("Image generation failed", zap.Error(err))
	return outbound.Image{}, fmt.Errorf("gemini: generate image: %w", err)
}

func (c *Client) generateJSON(ctx context.Context, operation string, contents []*genai.Content, schema *genai.Schema, safety []*genai.SafetySetting, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		SafetySettings:   safety,
	}
	if c.temperature > 0 {
		cfg.Temperature = genai.Ptr(c.temperature)
	}

	ctx, span := monitoring.StartSpan(ctx, "gemini."+operation,
		attribute.String("gen_ai.system", "gemini"),
		attribute.String("gen_ai.request.model", c.textModel),
	)
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.textModel, contents, cfg)
	if err == nil {
		err = decodeJSON(resp, schema, out)
	}
	c.metrics.AIRequest(operation, err, time.Since(start))
	monitoring.EndSpan(span, err)

	if err != nil {
		c.logger.Error("Model request failed", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("gemini: %s: %w", operation, err)
	}

	c.logger.Debug("Model request completed",
		zap.String("operation", operation),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Content, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}
	return resp.Candidates[0].Content, nil
}

// decodeJSON reads the candidate text into out. A null document is empty,
// and top-level keys listed in schema.Required must be present and non-null.
func decodeJSON(resp *genai.GenerateContentResponse, schema *genai.Schema, out any) error {
	content, err := firstCandidate(resp)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return ErrEmptyResponse
	}
	raw := []byte(stripFence(text))

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	if doc == nil {
		return ErrEmptyResponse
	}
	if err := checkRequired(doc, schema); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

func checkRequired(doc any, schema *genai.Schema) error {
	if schema == nil || len(schema.Required) == 0 {
		return nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: expected an object, got %T", ErrIncompleteResponse, doc)
	}
	for _, key := range schema.Required {
		if v, ok := obj[key]; !ok || v == nil {
			return fmt.Errorf("%w: %q", ErrIncompleteResponse, key)
		}
	}
	return nil
}

func firstImage(resp *genai.GenerateContentResponse) (outbound.Image, error) {
	content, err := firstCandidate(resp)
	if err != nil {
		return outbound.Image{}, err
	}
	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil {
			continue
		}
		blob := part.InlineData
		if strings.HasPrefix(blob.MIMEType, "image/") && len(blob.Data) > 0 {
			return outbound.Image{MIMEType: blob.MIMEType, Data: blob.Data}, nil
		}
	}
	return outbound.Image{}, ErrNoImage
}

// stripFence removes a ```json fence some model versions add despite the MIME type.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

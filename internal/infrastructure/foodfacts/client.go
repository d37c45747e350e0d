// Package foodfacts provides the Open Food Facts catalog client.
//
// The catalog is best-effort: every transport, status or decoding failure is
// logged and turned into an empty result so callers can always fall back to
// the generative model.
package foodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

const (
	// DefaultBaseURL is the public Open Food Facts instance.
	DefaultBaseURL = "https://world.openfoodfacts.org"
	// DefaultUserAgent identifies the application as the catalog's usage policy asks.
	DefaultUserAgent = "HarvestChef/1.0 (contact@harvest-chef.app)"

	searchFields = "code,product_name,product_name_en,brands,categories,ingredients_text,ingredients_text_en,nutriments,image_url,image_front_url"

	nutritionCandidates   = 5
	recipeSearchPageSize  = 10
	alternativesPageSize  = 20
	maxRecipeMatches      = 10
	maxAlternatives       = 5
	minRecipeConfidence   = 0.3
	defaultSearchPageSize = 20
	maxResponseBytes      = 8 << 20
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// RequestsPerSecond throttles outgoing requests; zero means unlimited.
	RequestsPerSecond float64
	Burst             int

	// Cache stores raw search responses for CacheTTL when set.
	Cache    outbound.CacheRepository
	CacheTTL time.Duration

	HTTPClient *http.Client
	Metrics    *monitoring.MetricsCollector
}

// Client implements outbound.FoodCatalog against the Open Food Facts API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	cache     outbound.CacheRepository
	cacheTTL  time.Duration
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

var _ outbound.FoodCatalog = (*Client)(nil)

// NewClient creates a new Open Food Facts client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		client:    httpClient,
		limiter:   limiter,
		cache:     opts.Cache,
		cacheTTL:  ttl,
		metrics:   opts.Metrics,
		logger:    logger.Named("foodfacts"),
	}
}

// Open Food Facts API structures
type searchResponse struct {
	Count    int          `json:"count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Products []apiProduct `json:"products"`
}

type productResponse struct {
	Status        int         `json:"status"`
	StatusVerbose string      `json:"status_verbose"`
	Product       *apiProduct `json:"product"`
}

type apiProduct struct {
	Code              string     `json:"code"`
	ProductName       string     `json:"product_name"`
	ProductNameEN     string     `json:"product_name_en"`
	Brands            string     `json:"brands"`
	Categories        string     `json:"categories"`
	IngredientsText   string     `json:"ingredients_text"`
	IngredientsTextEN string     `json:"ingredients_text_en"`
	Nutriments        nutriments `json:"nutriments"`
	ImageURL          string     `json:"image_url"`
	ImageFrontURL     string     `json:"image_front_url"`
}

func (p apiProduct) name() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	return p.ProductNameEN
}

func (p apiProduct) toProduct() outbound.Product {
	image := p.ImageFrontURL
	if image == "" {
		image = p.ImageURL
	}
	ingredients := p.IngredientsText
	if ingredients == "" {
		ingredients = p.IngredientsTextEN
	}
	return outbound.Product{
		Code:            p.Code,
		Name:            p.name(),
		Brands:          p.Brands,
		Categories:      p.Categories,
		IngredientsText: ingredients,
		ImageURL:        image,
		Nutrition:       p.Nutriments.record(),
		HasNutriments:   p.Nutriments != nil,
	}
}

// SearchProducts runs a full-text product search. It never fails; errors
// yield an empty slice.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) []outbound.Product {
	raw := c.search(ctx, query, limit)
	products := make([]outbound.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, p.toProduct())
	}
	return products
}

// GetProduct fetches a single product by barcode; nil when not found.
func (c *Client) GetProduct(ctx context.Context, barcode string) *outbound.Product {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))

	var resp productResponse
	if err := c.getJSON(ctx, "product", endpoint, &resp); err != nil {
		c.logger.Warn("Product lookup failed", zap.String("barcode", barcode), zap.Error(err))
		return nil
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil
	}

	product := resp.Product.toProduct()
	if product.Code == "" {
		product.Code = barcode
	}
	return &product
}

// search performs the HTTP search, consulting the cache first.
func (c *Client) search(ctx context.Context, query string, limit int) []apiProduct {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = defaultSearchPageSize
	}

	key := fmt.Sprintf("foodfacts:search:%d:%s", limit, strings.ToLower(query))
	if cached, ok := c.cachedSearch(ctx, key); ok {
		return cached
	}

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", fmt.Sprintf("%d", limit))
	params.Set("fields", searchFields)

	var resp searchResponse
	if err := c.getJSON(ctx, "search", c.baseURL+"/cgi/search.pl?"+params.Encode(), &resp); err != nil {
		c.logger.Warn("Product search failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	c.storeSearch(ctx, key, resp.Products)
	return resp.Products
}

func (c *Client) getJSON(ctx context.Context, endpoint, target string, out any) (err error) {
	start := time.Now()
	status := "success"
	defer func() {
		if err != nil {
			status = "error"
		}
		c.metrics.CatalogRequest(endpoint, status, time.Since(start))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("open food facts API error %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) cachedSearch(ctx context.Context, key string) ([]apiProduct, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			c.logger.Debug("Catalog cache read failed", zap.String("key", key), zap.Error(err))
			c.metrics.CacheOperation("get", "catalog", "error")
		} else {
			c.metrics.CacheOperation("get", "catalog", "miss")
		}
		return nil, false
	}

	var products []apiProduct
	if err := json.Unmarshal(data, &products); err != nil {
		c.metrics.CacheOperation("get", "catalog", "error")
		return nil, false
	}
	c.metrics.CacheOperation("get", "catalog", "hit")
	return products, true
}

func (c *Client) storeSearch(ctx context.Context, key string, products []apiProduct) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Debug("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		c.metrics.CacheOperation("set", "catalog", "error")
		return
	}
	c.metrics.CacheOperation("set", "catalog", "success")
}

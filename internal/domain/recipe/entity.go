// Package recipe contains the recipe value produced by the generators.
// Recipes are immutable once created; every change returns a copy.
package recipe

import (
	"strings"

	"github.com/google/uuid"
)

// PlaceholderImageURL is shown whenever no image could be generated.
const PlaceholderImageURL = "https://placehold.co/600x400.png"

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://harvest-chef.app/recipes"))

// Recipe is a generated or catalog-derived dish suggestion.
type Recipe struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Ingredients           []string        `json:"ingredients"`
	Instructions          []string        `json:"instructions"`
	ImageURL              string          `json:"imageUrl"`
	EstimatedCookingTime  string          `json:"estimatedCookingTime,omitempty"`
	DietaryCategory       DietaryCategory `json:"dietaryCategory,omitempty"`
	Difficulty            Difficulty      `json:"difficulty,omitempty"`
	Cuisine               string          `json:"cuisine,omitempty"`
	NutritionalHighlights []string        `json:"nutritionalHighlights,omitempty"`
	SourceInfo            *SourceInfo     `json:"sourceInfo,omitempty"`
}

// Draft carries the fields a generator produced before the recipe gets its identity.
type Draft struct {
	Name                  string
	Ingredients           []string
	Instructions          []string
	ImageURL              string
	EstimatedCookingTime  string
	DietaryCategory       DietaryCategory
	Difficulty            Difficulty
	Cuisine               string
	NutritionalHighlights []string
	SourceInfo            *SourceInfo
}

// New validates a draft and assigns its stable identifier.
func New(d Draft) (Recipe, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Recipe{}, ErrNameRequired
	}

	ingredients := compact(d.Ingredients)
	instructions := compact(d.Instructions)

	r := Recipe{
		ID:                    StableID(name, ingredients, instructions),
		Name:                  name,
		Ingredients:           ingredients,
		Instructions:          instructions,
		ImageURL:              strings.TrimSpace(d.ImageURL),
		EstimatedCookingTime:  strings.TrimSpace(d.EstimatedCookingTime),
		DietaryCategory:       d.DietaryCategory,
		Difficulty:            d.Difficulty,
		Cuisine:               strings.TrimSpace(d.Cuisine),
		NutritionalHighlights: compact(d.NutritionalHighlights),
	}
	if d.SourceInfo != nil {
		info := *d.SourceInfo
		r.SourceInfo = &info
	}
	return r, nil
}

// StableID derives a recipe identifier from its content. Two recipes with the
// same name, ingredients and steps share an ID regardless of case or image.
func StableID(name string, ingredients, instructions []string) string {
	var b strings.Builder
	b.WriteString(normalize(name))
	b.WriteByte(0)
	for _, ing := range ingredients {
		b.WriteString(normalize(ing))
		b.WriteByte(0x1f)
	}
	b.WriteByte(0)
	for _, step := range instructions {
		b.WriteString(normalize(step))
		b.WriteByte(0x1f)
	}
	return uuid.NewSHA1(idNamespace, []byte(b.String())).String()
}

// WithImage returns a copy of r that shows url, or the placeholder when url is empty.
func (r Recipe) WithImage(url string) Recipe {
	url = strings.TrimSpace(url)
	if url == "" {
		url = PlaceholderImageURL
	}
	out := r.clone()
	out.ImageURL = url
	return out
}

// HasImage reports whether the recipe carries a real image.
func (r Recipe) HasImage() bool {
	return r.ImageURL != "" && r.ImageURL != PlaceholderImageURL
}

func (r Recipe) clone() Recipe {
	out := r
	out.Ingredients = append([]string(nil), r.Ingredients...)
	out.Instructions = append([]string(nil), r.Instructions...)
	if r.NutritionalHighlights != nil {
		out.NutritionalHighlights = append([]string(nil), r.NutritionalHighlights...)
	}
	if r.SourceInfo != nil {
		info := *r.SourceInfo
		out.SourceInfo = &info
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

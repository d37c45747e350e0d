package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RecipeTestSuite struct {
	suite.Suite
	draft Draft
}

func (s *RecipeTestSuite) SetupTest() {
	s.draft = Draft{
		Name:                 "  Tomato Rice ",
		Ingredients:          []string{"tomato", " ", "rice"},
		Instructions:         []string{"Rinse the rice.", "Simmer with tomato."},
		EstimatedCookingTime: "30-45 minutes",
		DietaryCategory:      DietaryVegetarian,
	}
}

func (s *RecipeTestSuite) TestNew() {
	s.Run("ValidDraft_ShouldCreateRecipe", func() {
		r, err := New(s.draft)

		require.NoError(s.T(), err)
		assert.Equal(s.T(), "Tomato Rice", r.Name)
		assert.Equal(s.T(), []string{"tomato", "rice"}, r.Ingredients)
		assert.NotEmpty(s.T(), r.ID)
	})

	s.Run("EmptyName_ShouldReturnError", func() {
		d := s.draft
		d.Name = "   "

		_, err := New(d)

		assert.ErrorIs(s.T(), err, ErrNameRequired)
	})

	s.Run("SourceInfo_ShouldBeCopied", func() {
		d := s.draft
		d.SourceInfo = &SourceInfo{FromCatalog: true, Confidence: 0.5, MatchingIngredients: 2}

		r, err := New(d)
		require.NoError(s.T(), err)

		d.SourceInfo.Confidence = 0.9
		assert.Equal(s.T(), 0.5, r.SourceInfo.Confidence)
	})
}

func (s *RecipeTestSuite) TestStableID() {
	s.Run("SameContent_ShouldShareID", func() {
		a, _ := New(s.draft)
		d := s.draft
		d.Name = "tomato   rice"
		d.ImageURL = "data:image/png;base64,AAAA"
		b, _ := New(d)

		assert.Equal(s.T(), a.ID, b.ID)
	})

	s.Run("SameNameDifferentSteps_ShouldDiffer", func() {
		a, _ := New(s.draft)
		d := s.draft
		d.Instructions = []string{"Bake everything."}
		b, _ := New(d)

		assert.NotEqual(s.T(), a.ID, b.ID)
	})
}

func (s *RecipeTestSuite) TestWithImage() {
	r, err := New(s.draft)
	require.NoError(s.T(), err)

	withImage := r.WithImage("https://cdn.example.com/tomato-rice.png")
	assert.Equal(s.T(), "https://cdn.example.com/tomato-rice.png", withImage.ImageURL)
	assert.True(s.T(), withImage.HasImage())
	assert.Empty(s.T(), r.ImageURL)
	assert.Equal(s.T(), r.ID, withImage.ID)

	fallback := r.WithImage("")
	assert.Equal(s.T(), PlaceholderImageURL, fallback.ImageURL)
	assert.False(s.T(), fallback.HasImage())
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func TestParseDietaryCategory(t *testing.T) {
	c, ok := ParseDietaryCategory("non-vegetarian")
	assert.True(t, ok)
	assert.Equal(t, DietaryNonVegetarian, c)

	_, ok = ParseDietaryCategory("pescatarian")
	assert.False(t, ok)

	d, ok := ParseDifficulty(" hard ")
	assert.True(t, ok)
	assert.Equal(t, DifficultyHard, d)
}

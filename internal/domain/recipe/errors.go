package recipe

import "errors"

// Domain errors for recipe operations
var (
	ErrNameRequired   = errors.New("recipe name is required")
	ErrRecipeNotFound = errors.New("recipe not found")
)

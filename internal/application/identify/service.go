// Package identify turns a photo into a list of recognised ingredients.
package identify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/datauri"
	"github.com/harvestchef/harvest/pkg/errors"
)

// Service implements inbound.IngredientIdentifier
type Service struct {
	model  outbound.GenerativeModel
	logger *zap.Logger
}

var _ inbound.IngredientIdentifier = (*Service)(nil)

// NewService creates a new identification service
func NewService(model outbound.GenerativeModel, logger *zap.Logger) *Service {
	return &Service{
		model:  model,
		logger: logger.Named("identify-service"),
	}
}

// Identify asks the model which ingredients are visible in photo. The result
// is de-duplicated by name, ignoring case, and every item carries an ID.
func (s *Service) Identify(ctx context.Context, photo outbound.Image) ([]ingredient.Ingredient, error) {
	if err := validatePhoto(photo); err != nil {
		return nil, err
	}

	items, err := s.model.IdentifyIngredients(ctx, photo)
	if err != nil {
		s.logger.Error("Ingredient identification failed", zap.Error(err))
		return nil, errors.NewExternalServiceError("generative model", err)
	}

	out := ingredient.Dedupe(items)
	s.logger.Info("Ingredients identified",
		zap.Int("returned", len(items)),
		zap.Int("unique", len(out)))

	return out, nil
}

// PhotoFromDataURI decodes a browser data URI into an image.
func PhotoFromDataURI(uri string) (outbound.Image, error) {
	mimeType, data, err := datauri.Decode(uri)
	if err != nil {
		return outbound.Image{}, errors.NewValidationError(err.Error())
	}

	photo := outbound.Image{MIMEType: mimeType, Data: data}
	if err := validatePhoto(photo); err != nil {
		return outbound.Image{}, err
	}
	return photo, nil
}

func validatePhoto(photo outbound.Image) error {
	if len(photo.Data) == 0 {
		return errors.NewValidationError("image data is required")
	}
	if !strings.HasPrefix(strings.ToLower(photo.MIMEType), "image/") {
		return errors.NewValidationError("image must have an image/* MIME type")
	}
	return nil
}

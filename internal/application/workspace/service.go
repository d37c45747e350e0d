// Package workspace drives a visitor's ingredient and recipe working set.
// The workspace is stored as a JSON snapshot in the cache repository and
// every long-running action is guarded by a per-slot request token.
package workspace

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/domain/ingredient"
	"github.com/harvestchef/harvest/internal/domain/workspace"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/errors"
)

const (
	keyPrefix  = "workspace:"
	lockShards = 64
	defaultTTL = 24 * time.Hour
)

// Service implements inbound.WorkspaceService
type Service struct {
	store      outbound.CacheRepository
	identifier inbound.IngredientIdentifier
	recipes    inbound.RecipeService
	ttl        time.Duration
	logger     *zap.Logger
	metrics    *monitoring.MetricsCollector

	// owners hashing to the same shard share a mutex
	locks [lockShards]sync.Mutex
}

var _ inbound.WorkspaceService = (*Service)(nil)

// NewService creates a new workspace service
func NewService(
	store outbound.CacheRepository,
	identifier inbound.IngredientIdentifier,
	recipes inbound.RecipeService,
	ttl time.Duration,
	logger *zap.Logger,
	metrics *monitoring.MetricsCollector,
) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{
		store:      store,
		identifier: identifier,
		recipes:    recipes,
		ttl:        ttl,
		logger:     logger.Named("workspace-service"),
		metrics:    metrics,
	}
}

// Get returns the visitor's workspace, empty when none was saved yet.
func (s *Service) Get(ctx context.Context, owner string) (*workspace.Workspace, error) {
	unlock := s.lock(owner)
	defer unlock()

	return s.load(ctx, owner)
}

// Identify replaces the ingredient list with the ingredients found in photo.
// The result is discarded when a newer identification started meanwhile.
func (s *Service) Identify(ctx context.Context, owner string, photo outbound.Image) (*workspace.Workspace, error) {
	token, err := s.begin(ctx, owner, workspace.SlotIdentify, nil)
	if err != nil {
		return nil, err
	}

	items, err := s.identifier.Identify(ctx, photo)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, owner, func(ws *workspace.Workspace) error {
		if err := ws.ApplyIdentification(token, items); err != nil {
			return s.stale(owner, workspace.SlotIdentify, err)
		}
		return nil
	})
}

// AddIngredient appends a hand-typed ingredient. Adding a name that is
// already listed leaves the workspace unchanged.
func (s *Service) AddIngredient(ctx context.Context, owner, name string) (*workspace.Workspace, error) {
	return s.update(ctx, owner, func(ws *workspace.Workspace) error {
		_, _, err := ws.AddManual(name)
		return err
	})
}

// UpdateIngredient renames an ingredient and/or changes its status.
func (s *Service) UpdateIngredient(ctx context.Context, cmd inbound.UpdateIngredientCommand) (*workspace.Workspace, error) {
	if cmd.Name == nil && cmd.Status == nil {
		return nil, errors.NewValidationError("name or status is required")
	}

	return s.update(ctx, cmd.Owner, func(ws *workspace.Workspace) error {
		if cmd.Name != nil {
			if _, err := ws.Rename(cmd.ID, *cmd.Name); err != nil {
				return withIngredientID(err, cmd.ID)
			}
		}
		if cmd.Status != nil {
			if _, err := ws.SetStatus(cmd.ID, *cmd.Status); err != nil {
				return withIngredientID(err, cmd.ID)
			}
		}
		return nil
	})
}

// RemoveIngredient deletes an ingredient.
func (s *Service) RemoveIngredient(ctx context.Context, owner, id string) (*workspace.Workspace, error) {
	return s.update(ctx, owner, func(ws *workspace.Workspace) error {
		return withIngredientID(ws.Remove(id), id)
	})
}

// SuggestRecipes builds recipes from the accepted ingredients and replaces
// the displayed list.
func (s *Service) SuggestRecipes(ctx context.Context, owner string) (*workspace.Workspace, error) {
	var names []string
	token, err := s.begin(ctx, owner, workspace.SlotRecipes, func(ws *workspace.Workspace) error {
		var err error
		names, err = ws.AcceptedNames()
		return err
	})
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.SuggestByIngredients(ctx, names)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, owner, func(ws *workspace.Workspace) error {
		if err := ws.ApplyRecipes(token, "", recipes); err != nil {
			return s.stale(owner, workspace.SlotRecipes, err)
		}
		return nil
	})
}

// SearchRecipes replaces the displayed list with recipes matching query.
func (s *Service) SearchRecipes(ctx context.Context, owner, query string) (*workspace.Workspace, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationError("query is required")
	}

	token, err := s.begin(ctx, owner, workspace.SlotRecipes, nil)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.FindByName(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, owner, func(ws *workspace.Workspace) error {
		if err := ws.ApplyRecipes(token, query, recipes); err != nil {
			return s.stale(owner, workspace.SlotRecipes, err)
		}
		return nil
	})
}

// begin issues a token for slot after check passes and persists it, which
// makes any request still running in the slot stale.
func (s *Service) begin(ctx context.Context, owner string, slot workspace.Slot, check func(*workspace.Workspace) error) (uint64, error) {
	var token uint64
	_, err := s.update(ctx, owner, func(ws *workspace.Workspace) error {
		if check != nil {
			if err := check(ws); err != nil {
				return err
			}
		}
		token = ws.Begin(slot)
		return nil
	})
	return token, err
}

// update applies fn to a freshly loaded workspace and saves it. Nothing is
// saved when fn fails.
func (s *Service) update(ctx context.Context, owner string, fn func(*workspace.Workspace) error) (*workspace.Workspace, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, errors.NewBadRequestError("visitor session is required")
	}

	unlock := s.lock(owner)
	defer unlock()

	ws, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := fn(ws); err != nil {
		return nil, mapError(err)
	}

	if err := s.save(ctx, ws); err != nil {
		return nil, err
	}

	for _, event := range ws.PullEvents() {
		s.logger.Info("Workspace event",
			zap.String("event", event.EventName()),
			zap.String("owner", owner),
			zap.Time("occurred_at", event.OccurredAt()))
	}

	return ws, nil
}

func (s *Service) load(ctx context.Context, owner string) (*workspace.Workspace, error) {
	data, err := s.store.Get(ctx, keyPrefix+owner)
	if stderrors.Is(err, outbound.ErrCacheMiss) {
		return workspace.New(owner), nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("load workspace", err)
	}

	ws := workspace.New(owner)
	if err := json.Unmarshal(data, ws); err != nil {
		s.logger.Warn("Discarding unreadable workspace", zap.String("owner", owner), zap.Error(err))
		return workspace.New(owner), nil
	}
	ws.Owner = owner
	return ws, nil
}

func (s *Service) save(ctx context.Context, ws *workspace.Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return errors.Wrap(err, "failed to encode workspace")
	}
	if err := s.store.Set(ctx, keyPrefix+ws.Owner, data, s.ttl); err != nil {
		return errors.NewDatabaseError("save workspace", err)
	}
	return nil
}

func (s *Service) stale(owner string, slot workspace.Slot, err error) error {
	if !stderrors.Is(err, workspace.ErrStaleRequest) {
		return err
	}
	s.logger.Info("Discarding superseded result", zap.String("owner", owner), zap.String("slot", string(slot)))
	s.metrics.StaleResult(string(slot))
	return errors.NewStaleRequestError(string(slot))
}

func (s *Service) lock(owner string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	mu := &s.locks[h.Sum32()%lockShards]
	mu.Lock()
	return mu.Unlock
}

// withIngredientID names the missing ingredient in a not-found error.
func withIngredientID(err error, id string) error {
	if stderrors.Is(err, workspace.ErrIngredientNotFound) {
		return errors.NewIngredientNotFoundError(id).WithCause(err)
	}
	return err
}

func mapError(err error) error {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}

	switch {
	case stderrors.Is(err, workspace.ErrIngredientNotFound):
		return errors.NewAppError(errors.CodeIngredientNotFound, "Ingredient not found", err.Error())
	case stderrors.Is(err, workspace.ErrNoAcceptedIngredients):
		return errors.NewNoAcceptedIngredientsError()
	case stderrors.Is(err, workspace.ErrDuplicateIngredient),
		stderrors.Is(err, ingredient.ErrEmptyName),
		stderrors.Is(err, ingredient.ErrInvalidStatus):
		return errors.NewValidationError(err.Error())
	default:
		return errors.Wrap(err, "workspace update failed")
	}
}

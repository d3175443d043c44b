package httpapi

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/domain/jobscheduler"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/platform/logging"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

// MatchParseFunc turns one provider-shaped record into a parsed match.
// The bo3gg package supplies the production implementation; declaring it
// here keeps this package off the provider client.
type MatchParseFunc func(payload map[string]any) (match.Match, error)

type Handler struct {
	storeService    *usecase.StoreService
	syncService     *usecase.SyncService
	dataSourceRepo  datasource.Repository
	jobDispatchRepo jobscheduler.Repository
	parseMatch      MatchParseFunc
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	storeService *usecase.StoreService,
	syncService *usecase.SyncService,
	dataSourceRepo datasource.Repository,
	jobDispatchRepo jobscheduler.Repository,
	parseMatch MatchParseFunc,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		storeService:    storeService,
		syncService:     syncService,
		dataSourceRepo:  dataSourceRepo,
		jobDispatchRepo: jobDispatchRepo,
		parseMatch:      parseMatch,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

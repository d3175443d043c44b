package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListDataSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDataSources")
	defer span.End()

	if h.dataSourceRepo == nil {
		writeError(ctx, w, fmt.Errorf("%w: data source registry is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	items, err := h.dataSourceRepo.List(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list data sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]dataSourceDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, dataSourceToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

type dataSourceDTO struct {
	ID                 int64  `json:"id"`
	SourceType         string `json:"sourceType"`
	BaseURL            string `json:"baseUrl"`
	IsActive           bool   `json:"isActive"`
	RateLimitPerMinute int    `json:"rateLimitPerMinute,omitempty"`
	LastSyncAt         string `json:"lastSyncAt,omitempty"`
}

func dataSourceToDTO(item datasource.DataSource) dataSourceDTO {
	dto := dataSourceDTO{
		ID:                 item.ID,
		SourceType:         item.SourceType,
		BaseURL:            item.BaseURL,
		IsActive:           item.IsActive,
		RateLimitPerMinute: item.RateLimitPerMinute,
	}
	if item.LastSyncAt != nil {
		dto.LastSyncAt = item.LastSyncAt.UTC().Format(time.RFC3339)
	}
	return dto
}

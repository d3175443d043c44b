package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

type ingestMatchesRequest struct {
	Matches []map[string]any `json:"matches" validate:"required,min=1,max=500"`
}

type ingestMatchesResponse struct {
	Result   usecase.SyncResult      `json:"result"`
	Outcomes []usecase.IngestOutcome `json:"outcomes"`
}

// IngestMatches accepts a batch of provider-shaped match records, runs
// each through the parser and persists the survivors. The response keeps
// one outcome per input record, in input order, so the producer can see
// exactly which records were rejected and why.
func (h *Handler) IngestMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestMatches")
	defer span.End()

	if h.syncService == nil || h.parseMatch == nil {
		writeError(ctx, w, fmt.Errorf("%w: match ingestion is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req ingestMatchesRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	outcomes := make([]usecase.IngestOutcome, len(req.Matches))
	parsed := make([]match.Match, 0, len(req.Matches))
	parsedSlots := make([]int, 0, len(req.Matches))
	invalid := 0
	for i, payload := range req.Matches {
		item, err := h.parseMatch(payload)
		if err != nil {
			invalid++
			outcomes[i] = usecase.IngestOutcome{
				SourceID: payloadSourceID(payload),
				Outcome:  usecase.IngestOutcomeInvalid,
				Error:    err.Error(),
			}
			continue
		}
		parsed = append(parsed, item)
		parsedSlots = append(parsedSlots, i)
	}

	response := ingestMatchesResponse{Outcomes: outcomes}
	if len(parsed) == 0 {
		response.Result = usecase.SyncResult{Fetched: len(req.Matches), Skipped: invalid}
		h.logger.WarnContext(ctx, "ingest batch had no parseable records", "batch_size", len(req.Matches))
		writeSuccess(ctx, w, http.StatusOK, response)
		return
	}

	report, err := h.syncService.IngestMatches(ctx, parsed)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest matches failed", "batch_size", len(parsed), "error", err)
		writeError(ctx, w, err)
		return
	}

	for i, outcome := range report.Outcomes {
		outcomes[parsedSlots[i]] = outcome
	}
	report.Result.Fetched = len(req.Matches)
	report.Result.Skipped += invalid
	response.Result = report.Result

	writeSuccess(ctx, w, http.StatusOK, response)
}

// payloadSourceID pulls the upstream id out of an unparseable record so
// the outcome entry still identifies it.
func payloadSourceID(payload map[string]any) int64 {
	switch v := payload["id"].(type) {
	case float64:
		return int64(v)
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}

package bo3gg

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/rawdata"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
	"github.com/fadhlirmn/esports-sync/internal/platform/logging"
	"github.com/fadhlirmn/esports-sync/internal/platform/resilience"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

const (
	defaultBaseURL        = "https://api.bo3.gg/api/v1"
	defaultUserAgent      = "esports-sync/1.0"
	defaultPageLimit      = 50
	defaultMaxRetries     = 3
	defaultRetryDelay     = time.Second
	defaultRateLimitDelay = 500 * time.Millisecond

	// CS2DisciplineID narrows every match query to Counter-Strike 2.
	CS2DisciplineID = 1
)

var defaultIncludes = []string{"teams", "tournament", "ai_predictions", "games"}
var defaultStatuses = []string{match.StatusUpcoming, match.StatusCurrent}
var defaultTiers = []string{"s", "a"}

var errBO3Transient = crerr.New("bo3 transient failure")
var errNotFoundStatus = stderrors.New("bo3 resource not found")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RateLimitDelay time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig

	// SyncTiers and SyncTournamentIDs narrow the windows the sync
	// pipeline fetches. Empty values keep the provider defaults.
	SyncTiers         []string
	SyncTournamentIDs []int64
}

type Client struct {
	httpClient        *http.Client
	baseURL           string
	maxRetries        int
	retryDelay        time.Duration
	rateLimitDelay    time.Duration
	logger            *logging.Logger
	breaker           *resilience.CircuitBreaker
	circuitEnabled    bool
	flight            resilience.SingleFlight
	syncTiers         []string
	syncTournamentIDs []int64
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	rateLimitDelay := cfg.RateLimitDelay
	if rateLimitDelay < 0 {
		rateLimitDelay = 0
	}
	if cfg.RateLimitDelay == 0 {
		rateLimitDelay = defaultRateLimitDelay
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:        httpClient,
		baseURL:           baseURL,
		maxRetries:        maxRetries,
		retryDelay:        retryDelay,
		rateLimitDelay:    rateLimitDelay,
		logger:            logger,
		breaker:           resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled:    breakerCfg.Enabled,
		syncTiers:         cfg.SyncTiers,
		syncTournamentIDs: cfg.SyncTournamentIDs,
	}
}

// MatchQuery narrows a match listing. Zero-valued fields fall back to
// the defaults the sync pipeline uses: upcoming and current matches of
// tier s and a, with teams, tournament, predictions, and games included.
type MatchQuery struct {
	Statuses      []string
	Tiers         []string
	TournamentIDs []int64
	StartFrom     *time.Time
	StartTo       *time.Time
	Include       []string
	PageLimit     int
}

// FetchMatches pages through /matches until the reported total is
// covered. An empty page stops the loop early so a lying total cannot
// spin it forever.
func (c *Client) FetchMatches(ctx context.Context, query MatchQuery) (usecase.MatchSyncBundle, error) {
	pageLimit := query.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}

	bundle := usecase.MatchSyncBundle{}
	offset := 0
	for {
		params := c.buildMatchParams(query, offset, pageLimit)
		path := "/matches"

		var page pageEnvelope
		raw, err := c.doJSON(ctx, path, params, &page)
		if err != nil {
			return usecase.MatchSyncBundle{}, fmt.Errorf("fetch matches offset=%d: %w", offset, err)
		}
		bundle.RawPayloads = append(bundle.RawPayloads, buildAPIPayload(path, params, raw))

		if len(page.Results) == 0 {
			break
		}
		for _, item := range page.Results {
			parsed, err := ParseMatch(item)
			if err != nil {
				bundle.Skipped++
				c.logger.WarnContext(ctx, "skip unparsable match payload", "offset", offset, "error", err)
				continue
			}
			bundle.Matches = append(bundle.Matches, parsed)
		}

		step := page.Total.Limit
		if step <= 0 {
			step = pageLimit
		}
		offset += step
		if offset >= page.Total.Count {
			break
		}
	}

	return bundle, nil
}

// FetchUpcomingWeek lists matches starting between now and daysAhead
// days from now.
func (c *Client) FetchUpcomingWeek(ctx context.Context, daysAhead int) (usecase.MatchSyncBundle, error) {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	now := time.Now().UTC()
	end := now.AddDate(0, 0, daysAhead)

	return c.FetchMatches(ctx, MatchQuery{
		Tiers:         c.syncTiers,
		TournamentIDs: c.syncTournamentIDs,
		StartFrom:     &now,
		StartTo:       &end,
	})
}

// FetchFinishedSince lists matches that finished within the last
// daysBack days, so final scores and winners can catch up.
func (c *Client) FetchFinishedSince(ctx context.Context, daysBack int) (usecase.MatchSyncBundle, error) {
	if daysBack <= 0 {
		daysBack = 3
	}
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -daysBack)

	return c.FetchMatches(ctx, MatchQuery{
		Statuses:      []string{match.StatusFinished},
		Tiers:         c.syncTiers,
		TournamentIDs: c.syncTournamentIDs,
		StartFrom:     &from,
		StartTo:       &now,
	})
}

// FetchMatch loads one match by its source id. A 404 means the match is
// gone upstream and is reported as absent, not as an error.
func (c *Client) FetchMatch(ctx context.Context, sourceID int64) (match.Match, []rawdata.Payload, bool, error) {
	if sourceID <= 0 {
		return match.Match{}, nil, false, fmt.Errorf("%w: match source id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := "/matches/" + strconv.FormatInt(sourceID, 10)
	params := map[string]string{"with": strings.Join(defaultIncludes, ",")}

	var payload map[string]any
	raw, err := c.doJSON(ctx, path, params, &payload)
	if err != nil {
		if stderrors.Is(err, errNotFoundStatus) {
			return match.Match{}, nil, false, nil
		}
		return match.Match{}, nil, false, fmt.Errorf("fetch match source_id=%d: %w", sourceID, err)
	}

	parsed, err := ParseMatch(payload)
	if err != nil {
		return match.Match{}, nil, false, fmt.Errorf("parse match source_id=%d: %w", sourceID, err)
	}

	payloadRow := buildAPIPayload(path, params, raw)
	payloadRow.MatchSourceID = sourceID
	return parsed, []rawdata.Payload{payloadRow}, true, nil
}

// MatchesWithPredictions returns the upcoming window filtered to
// matches that carry at least one AI prediction, and optionally at
// least one odds entry.
func (c *Client) MatchesWithPredictions(ctx context.Context, daysAhead int, requireOdds bool) (usecase.MatchSyncBundle, error) {
	bundle, err := c.FetchUpcomingWeek(ctx, daysAhead)
	if err != nil {
		return usecase.MatchSyncBundle{}, err
	}

	filtered := make([]match.Match, 0, len(bundle.Matches))
	for _, item := range bundle.Matches {
		if len(item.Predictions) == 0 {
			continue
		}
		if requireOdds && len(item.Odds) == 0 {
			continue
		}
		filtered = append(filtered, item)
	}
	bundle.Matches = filtered
	return bundle, nil
}

// UniqueTournamentIDs collects the distinct tournament source ids
// referenced by the given matches, sorted ascending.
func UniqueTournamentIDs(matches []match.Match) []int64 {
	seen := make(map[int64]struct{}, len(matches))
	for _, item := range matches {
		if item.Tournament == nil || item.Tournament.SourceID <= 0 {
			continue
		}
		seen[item.Tournament.SourceID] = struct{}{}
	}

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Client) buildMatchParams(query MatchQuery, offset, pageLimit int) map[string]string {
	statuses := query.Statuses
	if len(statuses) == 0 {
		statuses = defaultStatuses
	}
	tiers := query.Tiers
	if len(tiers) == 0 {
		tiers = defaultTiers
	}
	includes := query.Include
	if len(includes) == 0 {
		includes = defaultIncludes
	}

	params := map[string]string{
		"page[offset]": strconv.Itoa(offset),
		"page[limit]":  strconv.Itoa(pageLimit),
		"sort":         "start_date",
		"with":         strings.Join(includes, ","),
	}
	params["filter[matches.discipline_id][eq]"] = strconv.Itoa(CS2DisciplineID)
	params["filter[matches.team1_id][not_eq_null]"] = ""
	params["filter[matches.team2_id][not_eq_null]"] = ""
	params["filter[matches.status][in]"] = strings.Join(statuses, ",")
	params["filter[matches.tier][in]"] = strings.Join(tiers, ",")

	if len(query.TournamentIDs) > 0 {
		values := make([]string, 0, len(query.TournamentIDs))
		for _, id := range query.TournamentIDs {
			values = append(values, strconv.FormatInt(id, 10))
		}
		params["filter[matches.tournament_id][in]"] = strings.Join(values, ",")
	}
	if query.StartFrom != nil {
		params["filter[matches.start_date][gte]"] = query.StartFrom.UTC().Format(time.RFC3339)
	}
	if query.StartTo != nil {
		params["filter[matches.start_date][lte]"] = query.StartTo.UTC().Format(time.RFC3339)
	}

	return params
}

type pageEnvelope struct {
	Results []map[string]any `json:"results"`
	Total   pageTotal        `json:"total"`
}

type pageTotal struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "bo3 circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isBO3CircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.waitRateLimit(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", defaultUserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errBO3Transient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errBO3Transient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: status=404", errNotFoundStatus)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errBO3Transient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		// Exponential backoff: retryDelay doubled per attempt.
		backoff := c.retryDelay << attempt
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "bo3 request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) waitRateLimit(ctx context.Context) error {
	if c.rateLimitDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.rateLimitDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isBO3CircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errBO3Transient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func buildAPIPayload(path string, query map[string]string, raw []byte) rawdata.Payload {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	entityKey := strings.TrimSpace(path)
	if encoded := values.Encode(); encoded != "" {
		entityKey += "?" + encoded
	}
	return rawdata.Payload{
		Source:      mutation.SourceBO3,
		EntityType:  "api_response",
		EntityKey:   entityKey,
		PayloadJSON: string(raw),
	}
}

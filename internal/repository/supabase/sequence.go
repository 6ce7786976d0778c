package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/httpclient"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sequenceStore issues counter values through Supabase's PostgREST RPC
// surface. The increment itself runs inside a SQL function, so a single
// call is atomic and gap-free regardless of how many clients race it.
type sequenceStore struct {
	client  httpclient.Client
	baseURL string
	apiKey  string
	nextFn  string
	peekFn  string
	seed    int64
	logger  *logger.Logger
}

type counterRow struct {
	Name            string    `json:"name"`
	CurrentValue    int64     `json:"current_value"`
	TotalIncrements int64     `json:"total_increments"`
	LastUpdated     time.Time `json:"last_updated"`
}

func NewSequenceStore(client httpclient.Client, cfg *config.Configuration, logger *logger.Logger) sequence.Store {
	return &sequenceStore{
		client:  client,
		baseURL: cfg.Supabase.BaseURL,
		apiKey:  cfg.Supabase.ServiceKey,
		nextFn:  cfg.Supabase.NextFn,
		peekFn:  cfg.Supabase.PeekFn,
		seed:    cfg.Sequence.Seed,
		logger:  logger,
	}
}

func (s *sequenceStore) BackendType() types.SequenceBackendType {
	return types.SequenceBackendSupabase
}

func (s *sequenceStore) headers() map[string]string {
	return map[string]string{
		"apikey":        s.apiKey,
		"Authorization": "Bearer " + s.apiKey,
	}
}

func (s *sequenceStore) rpc(ctx context.Context, fn string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/rest/v1/rpc/%s", s.baseURL, fn),
		Headers: s.headers(),
		Body:    body,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Supabase RPC call failed").
			WithReportableDetails(map[string]any{"function": fn}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return resp.Body, nil
}

func (s *sequenceStore) Ping(ctx context.Context) error {
	if s.baseURL == "" || s.apiKey == "" {
		return ierr.NewError("supabase is not configured").
			Mark(ierr.ErrBackendUnavailable)
	}

	_, err := s.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/rest/v1/dc_sequences?select=name&limit=1", s.baseURL),
		Headers: s.headers(),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Supabase is unreachable").
			Mark(ierr.ErrBackendUnavailable)
	}
	return nil
}

func (s *sequenceStore) Peek(ctx context.Context, name string) (int64, error) {
	body, err := s.rpc(ctx, s.peekFn, map[string]any{
		"seq_name": name,
		"seed":     s.seed,
	})
	if err != nil {
		return 0, err
	}

	var value int64
	if err := json.Unmarshal(body, &value); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Supabase returned a malformed counter value").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return value, nil
}

func (s *sequenceStore) Next(ctx context.Context, name string) (int64, error) {
	body, err := s.rpc(ctx, s.nextFn, map[string]any{
		"seq_name": name,
		"seed":     s.seed,
	})
	if err != nil {
		return 0, err
	}

	var value int64
	if err := json.Unmarshal(body, &value); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Supabase returned a malformed counter value").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return value, nil
}

func (s *sequenceStore) SetValue(ctx context.Context, name string, value int64, force bool) (int64, error) {
	if !force {
		current, err := s.Peek(ctx, name)
		if err != nil {
			return 0, err
		}
		if value < current {
			return 0, ierr.NewError("cannot lower sequence counter").
				WithHint("Lowering a counter reissues document numbers; pass force to override").
				WithReportableDetails(map[string]any{
					"sequence":        name,
					"current_value":   current,
					"requested_value": value,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	body, err := s.rpc(ctx, "set_seq_value", map[string]any{
		"seq_name":  name,
		"new_value": value,
	})
	if err != nil {
		return 0, err
	}

	var result int64
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Supabase returned a malformed counter value").
			WithReportableDetails(map[string]any{"sequence": name}).
			Mark(ierr.ErrBackendUnavailable)
	}

	s.logger.Infow("sequence counter overridden",
		"sequence", name,
		"value", result,
		"force", force,
	)
	return result, nil
}

func (s *sequenceStore) ListAll(ctx context.Context) ([]*sequence.Counter, error) {
	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/rest/v1/dc_sequences?select=*&order=name", s.baseURL),
		Headers: s.headers(),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list sequence counters").
			Mark(ierr.ErrBackendUnavailable)
	}

	var rows []counterRow
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Supabase returned malformed counter rows").
			Mark(ierr.ErrBackendUnavailable)
	}

	counters := make([]*sequence.Counter, 0, len(rows))
	for _, row := range rows {
		counters = append(counters, &sequence.Counter{
			Name:            row.Name,
			CurrentValue:    row.CurrentValue,
			TotalIncrements: row.TotalIncrements,
			LastUpdated:     row.LastUpdated,
		})
	}
	return counters, nil
}

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const TriggerTokenHeader = "X-Trigger-Token"

type HTTPTriggerConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPTrigger schedules continuations by calling this service's own trigger
// endpoints, so each batch runs in a fresh request. Calls are fire and
// forget: Schedule* returns once the request is launched and failures are
// only logged.
type HTTPTrigger struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  zerolog.Logger

	wg sync.WaitGroup
}

func NewHTTPTrigger(cfg HTTPTriggerConfig, logger zerolog.Logger) *HTTPTrigger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &HTTPTrigger{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		logger:  logger.With().Str("component", "http_trigger").Logger(),
	}
}

func (t *HTTPTrigger) ScheduleBatch(ctx context.Context, jobID string) error {
	return t.fire(ctx, "/api/v1/sync-jobs/"+url.PathEscape(jobID)+"/batches", nil)
}

func (t *HTTPTrigger) ScheduleSweep(ctx context.Context, storeID string, afterID int64) error {
	return t.fire(ctx, "/api/v1/stores/"+url.PathEscape(storeID)+"/match-sweeps", map[string]any{
		"after_id": afterID,
		"chain":    true,
	})
}

// Wait blocks until every launched trigger request has finished.
func (t *HTTPTrigger) Wait() {
	t.wg.Wait()
}

func (t *HTTPTrigger) fire(ctx context.Context, path string, payload any) error {
	var raw []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = encoded
	}

	// The request must outlive the invocation that scheduled it.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		if err := t.post(reqCtx, path, raw); err != nil {
			t.logger.Warn().Err(err).Str("path", path).Msg("continuation trigger failed")
		}
	}()
	return nil
}

func (t *HTTPTrigger) post(ctx context.Context, path string, raw []byte) error {
	var body io.Reader
	if raw != nil {
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, body)
	if err != nil {
		return err
	}
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set(TriggerTokenHeader, t.token)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("trigger %s returned %d", path, resp.StatusCode)
	}
	t.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("continuation triggered")
	return nil
}

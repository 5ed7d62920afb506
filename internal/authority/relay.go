package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"guardian-service/internal/models"
	"guardian-service/pkg/telegram"
)

// Payload is what gets forwarded to the external dispatch provider.
type Payload struct {
	Message  string                   `json:"message"`
	Contacts []models.DispatchContact `json:"contacts"`
	Meta     map[string]interface{}   `json:"meta,omitempty"`
}

// Result reports the relay outcome. It is informational only: the caller
// appends it to its response but never treats it as a failure of its own.
type Result struct {
	Enabled bool   `json:"enabled"`
	OK      bool   `json:"ok,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Relay forwards alerts to a dispatch/monitoring provider over a webhook and
// optionally mirrors them into a Telegram monitoring chat. Both paths are
// best-effort.
type Relay struct {
	url     string
	token   string
	timeout time.Duration
	client  *http.Client
	monitor *telegram.Notifier
	logger  *logrus.Logger
}

func NewRelay(url, token string, timeout time.Duration, monitor *telegram.Notifier, logger *logrus.Logger) *Relay {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Relay{
		url:     url,
		token:   token,
		timeout: timeout,
		client:  &http.Client{},
		monitor: monitor,
		logger:  logger,
	}
}

// Dispatch POSTs the payload to the configured webhook, bounded by the relay
// timeout. An unconfigured relay is a no-op returning {enabled:false}.
func (r *Relay) Dispatch(ctx context.Context, payload Payload) Result {
	if r == nil || r.url == "" {
		return Result{Enabled: false}
	}

	if payload.Meta == nil {
		payload.Meta = map[string]interface{}{}
	}
	payload.Meta["ts"] = time.Now().UnixMilli()

	res := r.post(ctx, payload)

	if r.monitor != nil {
		if err := r.monitor.Send(ctx, fmt.Sprintf("SOS relayed to %d contact(s): %s", len(payload.Contacts), payload.Message)); err != nil {
			r.logger.Errorf("Telegram monitor notify failed: %v", err)
		}
	}

	return res
}

func (r *Relay) post(ctx context.Context, payload Payload) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Enabled: true, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{Enabled: true, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{Enabled: true, Error: "TIMEOUT"}
		}
		return Result{Enabled: true, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		errMsg := fmt.Sprintf("HTTP_%d", resp.StatusCode)
		if len(text) > 0 {
			errMsg = fmt.Sprintf("%s:%s", errMsg, string(text))
		}
		return Result{Enabled: true, Error: errMsg}
	}

	return Result{Enabled: true, OK: true, Status: resp.StatusCode}
}

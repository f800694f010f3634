package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evolvia/student-lab-backend/pkg/config"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
	"github.com/evolvia/student-lab-backend/pkg/metrics"
)

// webhookTimeout bounds a single webhook call
const webhookTimeout = 30 * time.Second

// StatusWebhook posts lab status notifications to the optional
// content-management webhook. The integration is best-effort: callers
// log failures and never propagate them.
type StatusWebhook interface {
	// Enabled reports whether the webhook is configured
	Enabled() bool

	// Notify posts a status notification for a lab
	Notify(ctx context.Context, email, labID, status string) error
}

type cmsWebhook struct {
	cfg        config.WebhookConfig
	httpClient *http.Client
	log        logger.Logger
}

// NewStatusWebhook creates the content-management webhook client
func NewStatusWebhook(cfg config.WebhookConfig, log logger.Logger) StatusWebhook {
	return &cmsWebhook{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: webhookTimeout},
		log:        log,
	}
}

// Enabled implements StatusWebhook
func (w *cmsWebhook) Enabled() bool {
	return w.cfg.Enabled()
}

type webhookPayload struct {
	Email  string `json:"email"`
	LabID  string `json:"lab_id"`
	Status string `json:"status"`
}

// Notify implements StatusWebhook. The shared secret rides as a query
// parameter, matching what the receiver expects.
func (w *cmsWebhook) Notify(ctx context.Context, email, labID, status string) error {
	if !w.Enabled() {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Email:  email,
		LabID:  labID,
		Status: status,
	})
	if err != nil {
		return errors.NewInternal("Failed to encode webhook payload").WithError(err)
	}

	endpoint := fmt.Sprintf("%s?secret_key=%s", w.cfg.URL, url.QueryEscape(w.cfg.SecretKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.NewInternal("Failed to build webhook request").WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		metrics.RelayCalls.WithLabelValues("webhook", metrics.OutcomeError).Inc()
		return errors.NewUpstream("Failed to reach content webhook").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		metrics.RelayCalls.WithLabelValues("webhook", metrics.OutcomeError).Inc()
		return errors.NewUpstream("Content webhook rejected notification").WithDetails(string(text))
	}

	metrics.RelayCalls.WithLabelValues("webhook", metrics.OutcomeSuccess).Inc()
	w.log.Info("Status webhook delivered",
		logger.String("lab_id", labID),
		logger.String("status", status))

	return nil
}

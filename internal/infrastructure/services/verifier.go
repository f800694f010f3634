package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/evolvia/student-lab-backend/pkg/config"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
	"github.com/evolvia/student-lab-backend/pkg/metrics"
)

// verifyTimeout bounds a single verification relay call
const verifyTimeout = 60 * time.Second

// VerifyInput is the payload of a lab verification request
type VerifyInput struct {
	User  string `json:"user"`
	Email string `json:"email"`
	Cloud string `json:"cloud"`
	Lab   string `json:"lab"`
}

// LabVerifier relays verification requests to the verification service
// and returns the relay's JSON response verbatim. HTTP-level failures
// carry the relay's status code so callers can pass it through.
type LabVerifier interface {
	Verify(ctx context.Context, input VerifyInput) (json.RawMessage, error)
}

type verifyClient struct {
	cfg        config.VerifyConfig
	httpClient *http.Client
	log        logger.Logger
}

// NewLabVerifier creates a verification relay client
func NewLabVerifier(cfg config.VerifyConfig, log logger.Logger) LabVerifier {
	return &verifyClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: verifyTimeout},
		log:        log,
	}
}

// Verify implements LabVerifier
func (v *verifyClient) Verify(ctx context.Context, input VerifyInput) (json.RawMessage, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.NewInternal("Failed to encode verification payload").WithError(err)
	}

	url := v.cfg.Host + v.cfg.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternal("Failed to build verification request").WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, v.cfg.APIKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		metrics.RelayCalls.WithLabelValues("verify", metrics.OutcomeError).Inc()
		return nil, errors.NewUpstream("Failed to reach verification service").WithError(err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RelayCalls.WithLabelValues("verify", metrics.OutcomeError).Inc()
		return nil, errors.NewUpstream("Failed to read verification response").WithError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RelayCalls.WithLabelValues("verify", metrics.OutcomeError).Inc()
		v.log.Error("Verification relay rejected request",
			logger.Int("status", resp.StatusCode),
			logger.String("user", input.User))
		return nil, errors.NewUpstream("Verification service rejected request").
			WithStatusCode(resp.StatusCode).
			WithDetails(string(text))
	}

	metrics.RelayCalls.WithLabelValues("verify", metrics.OutcomeSuccess).Inc()
	return json.RawMessage(text), nil
}

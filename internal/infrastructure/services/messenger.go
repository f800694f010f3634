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

// APIKeyHeader authenticates outbound relay calls
const APIKeyHeader = "X-API-Key"

// labReadySubject is the subject line of the lab ready email
const labReadySubject = "[Evolvia] Your lab environment is ready!"

// messengerTimeout bounds a single messenger relay call
const messengerTimeout = 30 * time.Second

// LabReadyEmail is the payload of a lab ready notification
type LabReadyEmail struct {
	Recipient     string
	Username      string
	Password      string
	CloudProvider string
	TTLSeconds    int
}

// Messenger relays lab ready emails through the messaging service. The
// email is the primary deliverable of a successful provisioning run, so
// failures propagate to the caller.
type Messenger interface {
	SendLabReady(ctx context.Context, email LabReadyEmail) error
}

type messengerClient struct {
	cfg        config.MessengerConfig
	httpClient *http.Client
	log        logger.Logger
}

// NewMessenger creates a messenger relay client
func NewMessenger(cfg config.MessengerConfig, log logger.Logger) Messenger {
	return &messengerClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: messengerTimeout},
		log:        log,
	}
}

type messengerPayload struct {
	Template      string `json:"template"`
	Recipient     string `json:"recipient"`
	Subject       string `json:"subject"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CloudProvider string `json:"cloud_provider"`
	TTLSeconds    int    `json:"ttl_seconds"`
}

// SendLabReady implements Messenger
func (m *messengerClient) SendLabReady(ctx context.Context, email LabReadyEmail) error {
	body, err := json.Marshal(messengerPayload{
		Template:      m.cfg.Template,
		Recipient:     email.Recipient,
		Subject:       labReadySubject,
		Username:      email.Username,
		Password:      email.Password,
		CloudProvider: email.CloudProvider,
		TTLSeconds:    email.TTLSeconds,
	})
	if err != nil {
		return errors.NewInternal("Failed to encode messenger payload").WithError(err)
	}

	url := m.cfg.Host + m.cfg.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.NewInternal("Failed to build messenger request").WithError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, m.cfg.APIKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.RelayCalls.WithLabelValues("messenger", metrics.OutcomeError).Inc()
		return errors.NewUpstream("Failed to reach messenger service").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		metrics.RelayCalls.WithLabelValues("messenger", metrics.OutcomeError).Inc()
		m.log.Error("Messenger relay rejected notification",
			logger.Int("status", resp.StatusCode),
			logger.String("recipient", email.Recipient))
		return errors.NewUpstream("Messenger service rejected lab ready notification").WithDetails(string(text))
	}

	metrics.RelayCalls.WithLabelValues("messenger", metrics.OutcomeSuccess).Inc()
	m.log.Info("Lab ready email relayed",
		logger.String("recipient", email.Recipient),
		logger.String("username", email.Username))

	return nil
}

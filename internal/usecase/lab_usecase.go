package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/evolvia/student-lab-backend/internal/domain/entity"
	"github.com/evolvia/student-lab-backend/internal/domain/repository"
	"github.com/evolvia/student-lab-backend/internal/infrastructure/services"
	"github.com/evolvia/student-lab-backend/pkg/credentials"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
	"github.com/evolvia/student-lab-backend/pkg/metrics"
)

// LabUseCase handles the lab lifecycle business logic
type LabUseCase interface {
	// StartLab generates credentials, persists a pending record, and
	// dispatches the apply workflow
	StartLab(ctx context.Context, input *StartLabInput) (*StartLabResult, error)

	// ListAll enumerates every stored lab with its remaining TTL
	ListAll(ctx context.Context) ([]*entity.LabWithTTL, error)

	// ReportStatus records a status report from the workflow. Idempotent
	// on the terminal ready state.
	ReportStatus(ctx context.Context, username, status string) (string, error)

	// DeleteRecord removes a lab record
	DeleteRecord(ctx context.Context, username string) (string, error)

	// TriggerDestroy dispatches the destroy workflow for a lab. The
	// record itself is kept; deletion is a separate explicit operation.
	TriggerDestroy(ctx context.Context, username string) (string, error)

	// Verify passes a verification request through to the relay
	Verify(ctx context.Context, input services.VerifyInput) (json.RawMessage, error)
}

// labUseCase is the concrete implementation
type labUseCase struct {
	labRepo    repository.LabRepository
	dispatcher services.WorkflowDispatcher
	messenger  services.Messenger
	verifier   services.LabVerifier
	webhook    services.StatusWebhook
	logger     logger.Logger
}

// NewLabUseCase creates a new lab use case
func NewLabUseCase(
	labRepo repository.LabRepository,
	dispatcher services.WorkflowDispatcher,
	messenger services.Messenger,
	verifier services.LabVerifier,
	webhook services.StatusWebhook,
	logger logger.Logger,
) LabUseCase {
	return &labUseCase{
		labRepo:    labRepo,
		dispatcher: dispatcher,
		messenger:  messenger,
		verifier:   verifier,
		webhook:    webhook,
		logger:     logger,
	}
}

// StartLabInput represents input for starting a lab
type StartLabInput struct {
	LabName       string
	CloudProvider string
	Email         string
	TTLSeconds    int
}

// StartLabResult carries the generated credentials back to the client
type StartLabResult struct {
	Message  string
	Username string
	Password string
}

// StartLab implements LabUseCase. The pending record is persisted before
// the workflow dispatch; a dispatch failure surfaces to the caller and
// leaves the record in place — there is deliberately no rollback.
func (uc *labUseCase) StartLab(ctx context.Context, input *StartLabInput) (*StartLabResult, error) {
	if input.LabName == "" {
		return nil, errors.NewValidation("lab_name is required")
	}
	if input.CloudProvider == "" {
		return nil, errors.NewValidation("cloud_provider is required")
	}
	if input.Email == "" {
		return nil, errors.NewValidation("email is required")
	}
	if input.TTLSeconds <= 0 {
		return nil, errors.NewValidation("lab_ttl must be greater than 0")
	}

	username, password, err := credentials.Generate()
	if err != nil {
		uc.logger.Error("Failed to generate credentials", logger.Error(err))
		return nil, errors.NewInternal("Failed to generate lab credentials").WithError(err)
	}

	record := &entity.LabRecord{
		LabName:       input.LabName,
		CloudProvider: input.CloudProvider,
		TTLSeconds:    input.TTLSeconds,
		Username:      username,
		Password:      password,
		Email:         input.Email,
		Status:        entity.StatusPending,
	}

	uc.logger.Info("Storing lab record",
		logger.String("username", username),
		logger.String("lab", input.LabName),
		logger.String("cloud_provider", input.CloudProvider))

	if err := uc.labRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	if err := uc.dispatcher.Dispatch(ctx, services.DispatchInput{
		Username:      username,
		Password:      password,
		LabName:       input.LabName,
		Action:        services.ActionApply,
		CloudProvider: input.CloudProvider,
	}); err != nil {
		return nil, err
	}

	metrics.LabsStarted.WithLabelValues(input.CloudProvider).Inc()

	return &StartLabResult{
		Message:  "Lab creation is in progress",
		Username: username,
		Password: password,
	}, nil
}

// ListAll implements LabUseCase
func (uc *labUseCase) ListAll(ctx context.Context) ([]*entity.LabWithTTL, error) {
	return uc.labRepo.ListAll(ctx)
}

// ReportStatus implements LabUseCase.
//
// The ready state is terminal: once a lab is ready, further reports are
// no-ops. A ready report sends the lab ready email before persisting, so
// a messenger failure leaves the record non-ready and the report
// retryable. Non-ready reports persist first and then notify the
// content webhook best-effort.
func (uc *labUseCase) ReportStatus(ctx context.Context, username, statusValue string) (string, error) {
	status := entity.Status(strings.ToLower(strings.TrimSpace(statusValue)))

	record, err := uc.labRepo.Get(ctx, username)
	if err != nil {
		return "", err
	}

	if record.IsReady() {
		return "Lab already marked as ready", nil
	}

	now := time.Now().UTC()

	if status != entity.StatusReady {
		record.MarkStatus(status, now)
		if err := uc.labRepo.Save(ctx, record); err != nil {
			return "", err
		}
		metrics.StatusReports.WithLabelValues(status.String()).Inc()

		uc.notifyWebhook(ctx, record)

		return fmt.Sprintf("Lab %s reported status: %s", username, status), nil
	}

	record.MarkReady(now)

	if err := uc.messenger.SendLabReady(ctx, services.LabReadyEmail{
		Recipient:     record.Email,
		Username:      record.Username,
		Password:      record.Password,
		CloudProvider: record.CloudProvider,
		TTLSeconds:    record.TTLSeconds,
	}); err != nil {
		return "", err
	}

	if err := uc.labRepo.Save(ctx, record); err != nil {
		return "", err
	}
	metrics.StatusReports.WithLabelValues(entity.StatusReady.String()).Inc()

	uc.notifyWebhook(ctx, record)

	return fmt.Sprintf("Lab %s marked as ready and notifications sent", username), nil
}

// notifyWebhook posts the record's status to the content webhook when
// configured. Best-effort: failures are logged, never surfaced.
func (uc *labUseCase) notifyWebhook(ctx context.Context, record *entity.LabRecord) {
	if !uc.webhook.Enabled() {
		return
	}

	labID := record.WebhookLabID()
	if err := uc.webhook.Notify(ctx, record.Email, labID, record.Status.WebhookValue()); err != nil {
		uc.logger.Warn("Failed to call content webhook",
			logger.String("lab_id", labID),
			logger.Error(err))
	}
}

// DeleteRecord implements LabUseCase
func (uc *labUseCase) DeleteRecord(ctx context.Context, username string) (string, error) {
	if err := uc.labRepo.Delete(ctx, username); err != nil {
		return "", err
	}

	uc.logger.Info("Lab record deleted", logger.String("username", username))
	return fmt.Sprintf("Lab record for %s deleted successfully", username), nil
}

// TriggerDestroy implements LabUseCase
func (uc *labUseCase) TriggerDestroy(ctx context.Context, username string) (string, error) {
	record, err := uc.labRepo.Get(ctx, username)
	if err != nil {
		return "", err
	}

	if err := record.ValidateForDestroy(); err != nil {
		uc.logger.Warn("Lab record incomplete for destroy",
			logger.String("username", username),
			logger.Error(err))
		return "", errors.NewDataIntegrity("Lab record is incomplete").WithError(err)
	}

	if err := uc.dispatcher.Dispatch(ctx, services.DispatchInput{
		Username:      username,
		Password:      services.DestroyPlaceholderPassword,
		LabName:       record.LabName,
		Action:        services.ActionDestroy,
		CloudProvider: record.CloudProvider,
	}); err != nil {
		return "", err
	}

	uc.logger.Info("Destroy workflow triggered", logger.String("username", username))
	return fmt.Sprintf("Destroy action triggered for %s", username), nil
}

// Verify implements LabUseCase
func (uc *labUseCase) Verify(ctx context.Context, input services.VerifyInput) (json.RawMessage, error) {
	return uc.verifier.Verify(ctx, input)
}

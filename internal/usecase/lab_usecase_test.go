package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvia/student-lab-backend/internal/domain/entity"
	"github.com/evolvia/student-lab-backend/internal/infrastructure/services"
	"github.com/evolvia/student-lab-backend/pkg/credentials"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
)

// fakeRepo mimics the Redis repository: Get returns a fresh copy, Save
// stores a copy, so in-flight mutations are not visible until persisted.
type fakeRepo struct {
	records map[string]entity.LabRecord
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]entity.LabRecord)}
}

func (r *fakeRepo) Get(ctx context.Context, username string) (*entity.LabRecord, error) {
	record, ok := r.records[username]
	if !ok {
		return nil, errors.NewNotFound("Lab")
	}
	copied := record
	return &copied, nil
}

func (r *fakeRepo) Save(ctx context.Context, record *entity.LabRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[record.Username] = *record
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, username string) error {
	if _, ok := r.records[username]; !ok {
		return errors.NewNotFound("Lab")
	}
	delete(r.records, username)
	return nil
}

func (r *fakeRepo) ListAll(ctx context.Context) ([]*entity.LabWithTTL, error) {
	labs := make([]*entity.LabWithTTL, 0, len(r.records))
	for _, record := range r.records {
		labs = append(labs, &entity.LabWithTTL{LabRecord: record, TTL: -1})
	}
	return labs, nil
}

type fakeDispatcher struct {
	calls []services.DispatchInput
	err   error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, input services.DispatchInput) error {
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, input)
	return nil
}

type fakeMessenger struct {
	calls []services.LabReadyEmail
	err   error
}

func (m *fakeMessenger) SendLabReady(ctx context.Context, email services.LabReadyEmail) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, email)
	return nil
}

type fakeVerifier struct {
	input services.VerifyInput
	resp  json.RawMessage
	err   error
}

func (v *fakeVerifier) Verify(ctx context.Context, input services.VerifyInput) (json.RawMessage, error) {
	v.input = input
	if v.err != nil {
		return nil, v.err
	}
	return v.resp, nil
}

type webhookCall struct {
	Email  string
	LabID  string
	Status string
}

type fakeWebhook struct {
	enabled bool
	calls   []webhookCall
	err     error
}

func (w *fakeWebhook) Enabled() bool {
	return w.enabled
}

func (w *fakeWebhook) Notify(ctx context.Context, email, labID, status string) error {
	w.calls = append(w.calls, webhookCall{Email: email, LabID: labID, Status: status})
	return w.err
}

type fixture struct {
	repo       *fakeRepo
	dispatcher *fakeDispatcher
	messenger  *fakeMessenger
	verifier   *fakeVerifier
	webhook    *fakeWebhook
	uc         LabUseCase
}

func newFixture() *fixture {
	f := &fixture{
		repo:       newFakeRepo(),
		dispatcher: &fakeDispatcher{},
		messenger:  &fakeMessenger{},
		verifier:   &fakeVerifier{resp: json.RawMessage(`{"verified":true}`)},
		webhook:    &fakeWebhook{enabled: true},
	}
	f.uc = NewLabUseCase(f.repo, f.dispatcher, f.messenger, f.verifier, f.webhook, logger.New("error"))
	return f
}

func startInput() *StartLabInput {
	return &StartLabInput{
		LabName:       "basic",
		CloudProvider: "aws",
		Email:         "a@b.com",
		TTLSeconds:    3600,
	}
}

func TestStartLab(t *testing.T) {
	f := newFixture()

	result, err := f.uc.StartLab(context.Background(), startInput())
	require.NoError(t, err)

	assert.Equal(t, "Lab creation is in progress", result.Message)
	assert.NotEmpty(t, result.Username)
	assert.Len(t, result.Password, credentials.PasswordLength)

	// Record persisted as pending with the returned credentials
	record, err := f.repo.Get(context.Background(), result.Username)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, record.Status)
	assert.Equal(t, result.Password, record.Password)
	assert.Equal(t, "basic", record.LabName)
	assert.Equal(t, "aws", record.CloudProvider)
	assert.Equal(t, 3600, record.TTLSeconds)
	assert.Equal(t, "a@b.com", record.Email)

	// Apply workflow dispatched with the same credentials
	require.Len(t, f.dispatcher.calls, 1)
	call := f.dispatcher.calls[0]
	assert.Equal(t, services.ActionApply, call.Action)
	assert.Equal(t, result.Username, call.Username)
	assert.Equal(t, result.Password, call.Password)
	assert.Equal(t, "aws", call.CloudProvider)
}

func TestStartLabDispatchFailureKeepsRecord(t *testing.T) {
	f := newFixture()
	f.dispatcher.err = errors.NewUpstream("Failed to trigger workflow")

	_, err := f.uc.StartLab(context.Background(), startInput())
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))

	// No rollback: the pending record stays behind
	labs, listErr := f.repo.ListAll(context.Background())
	require.NoError(t, listErr)
	require.Len(t, labs, 1)
	assert.Equal(t, entity.StatusPending, labs[0].Status)
}

func TestStartLabValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name  string
		input *StartLabInput
	}{
		{"missing lab name", &StartLabInput{CloudProvider: "aws", Email: "a@b.com", TTLSeconds: 1}},
		{"missing cloud", &StartLabInput{LabName: "basic", Email: "a@b.com", TTLSeconds: 1}},
		{"missing email", &StartLabInput{LabName: "basic", CloudProvider: "aws", TTLSeconds: 1}},
		{"zero ttl", &StartLabInput{LabName: "basic", CloudProvider: "aws", Email: "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.StartLab(context.Background(), tt.input)
			require.Error(t, err)
			assert.Empty(t, f.dispatcher.calls)
		})
	}
}

func TestReportStatusUnknownLab(t *testing.T) {
	f := newFixture()

	_, err := f.uc.ReportStatus(context.Background(), "student-missing", "ready")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func seedLab(t *testing.T, f *fixture) string {
	t.Helper()
	result, err := f.uc.StartLab(context.Background(), startInput())
	require.NoError(t, err)
	return result.Username
}

func TestReportStatusReady(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)

	message, err := f.uc.ReportStatus(context.Background(), username, "ready")
	require.NoError(t, err)
	assert.Contains(t, message, username)

	record, err := f.repo.Get(context.Background(), username)
	require.NoError(t, err)
	assert.True(t, record.IsReady())
	require.NotNil(t, record.StartedAt)
	assert.Nil(t, record.ErrorAt)

	// Messenger called once with the stored credentials
	require.Len(t, f.messenger.calls, 1)
	email := f.messenger.calls[0]
	assert.Equal(t, "a@b.com", email.Recipient)
	assert.Equal(t, username, email.Username)
	assert.Equal(t, record.Password, email.Password)
	assert.Equal(t, 3600, email.TTLSeconds)

	// Webhook notified with the mapped vocabulary
	require.Len(t, f.webhook.calls, 1)
	assert.Equal(t, webhookCall{Email: "a@b.com", LabID: "aws-basic", Status: "success"}, f.webhook.calls[0])
}

func TestReportStatusReadyIsIdempotent(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)

	_, err := f.uc.ReportStatus(context.Background(), username, "ready")
	require.NoError(t, err)

	message, err := f.uc.ReportStatus(context.Background(), username, "ready")
	require.NoError(t, err)
	assert.Equal(t, "Lab already marked as ready", message)

	// Second report performs no relay calls
	assert.Len(t, f.messenger.calls, 1)
	assert.Len(t, f.webhook.calls, 1)
}

func TestReportStatusReadyAfterFailureIsTerminal(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)

	_, err := f.uc.ReportStatus(context.Background(), username, "ready")
	require.NoError(t, err)

	// A late failure report must not reopen a ready lab
	_, err = f.uc.ReportStatus(context.Background(), username, "failed")
	require.NoError(t, err)

	record, err := f.repo.Get(context.Background(), username)
	require.NoError(t, err)
	assert.True(t, record.IsReady())
}

func TestReportStatusNonReadyOverwrites(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)

	message, err := f.uc.ReportStatus(context.Background(), username, "FAILED")
	require.NoError(t, err)
	assert.Contains(t, message, "failed")

	first, err := f.repo.Get(context.Background(), username)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, first.Status)
	require.NotNil(t, first.ErrorAt)

	_, err = f.uc.ReportStatus(context.Background(), username, "timeout")
	require.NoError(t, err)

	second, err := f.repo.Get(context.Background(), username)
	require.NoError(t, err)
	assert.Equal(t, entity.Status("timeout"), second.Status)
	require.NotNil(t, second.ErrorAt)
	assert.False(t, second.ErrorAt.Before(*first.ErrorAt))

	// No email for non-ready reports, webhook notified each time
	assert.Empty(t, f.messenger.calls)
	require.Len(t, f.webhook.calls, 2)
	assert.Equal(t, "error", f.webhook.calls[0].Status)
	assert.Equal(t, "pending", f.webhook.calls[1].Status)
}

func TestReportStatusReadyMessengerFailure(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)
	f.messenger.err = errors.NewUpstream("Messenger service rejected lab ready notification")

	_, err := f.uc.ReportStatus(context.Background(), username, "ready")
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))

	// The email is the primary deliverable: the record must stay
	// non-ready so the report can be retried
	record, getErr := f.repo.Get(context.Background(), username)
	require.NoError(t, getErr)
	assert.False(t, record.IsReady())
	assert.Empty(t, f.webhook.calls)
}

func TestReportStatusWebhookFailureIsBestEffort(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)
	f.webhook.err = errors.NewUpstream("Content webhook rejected notification")

	_, err := f.uc.ReportStatus(context.Background(), username, "ready")
	require.NoError(t, err)

	record, getErr := f.repo.Get(context.Background(), username)
	require.NoError(t, getErr)
	assert.True(t, record.IsReady())
}

func TestReportStatusWebhookDisabled(t *testing.T) {
	f := newFixture()
	f.webhook.enabled = false
	username := seedLab(t, f)

	_, err := f.uc.ReportStatus(context.Background(), username, "failed")
	require.NoError(t, err)
	assert.Empty(t, f.webhook.calls)
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)

	message, err := f.uc.DeleteRecord(context.Background(), username)
	require.NoError(t, err)
	assert.Contains(t, message, username)

	_, err = f.repo.Get(context.Background(), username)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteRecordMissing(t *testing.T) {
	f := newFixture()

	_, err := f.uc.DeleteRecord(context.Background(), "student-missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestTriggerDestroy(t *testing.T) {
	f := newFixture()
	username := seedLab(t, f)
	f.dispatcher.calls = nil

	message, err := f.uc.TriggerDestroy(context.Background(), username)
	require.NoError(t, err)
	assert.Contains(t, message, username)

	require.Len(t, f.dispatcher.calls, 1)
	call := f.dispatcher.calls[0]
	assert.Equal(t, services.ActionDestroy, call.Action)
	assert.Equal(t, services.DestroyPlaceholderPassword, call.Password)
	assert.Equal(t, "basic", call.LabName)
	assert.Equal(t, "aws", call.CloudProvider)

	// Destroy does not delete the record
	_, err = f.repo.Get(context.Background(), username)
	assert.NoError(t, err)
}

func TestTriggerDestroyIncompleteRecord(t *testing.T) {
	f := newFixture()
	f.repo.records["student-broken"] = entity.LabRecord{
		Username: "student-broken",
		LabName:  "basic",
		Status:   entity.StatusPending,
	}

	_, err := f.uc.TriggerDestroy(context.Background(), "student-broken")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrDataIntegrity, appErr.Code)
	assert.Empty(t, f.dispatcher.calls)
}

func TestTriggerDestroyMissing(t *testing.T) {
	f := newFixture()

	_, err := f.uc.TriggerDestroy(context.Background(), "student-missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestVerifyPassThrough(t *testing.T) {
	f := newFixture()

	input := services.VerifyInput{User: "student-abc", Email: "a@b.com", Cloud: "aws", Lab: "basic"}
	result, err := f.uc.Verify(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, input, f.verifier.input)
	assert.JSONEq(t, `{"verified":true}`, string(result))
}

func TestListAll(t *testing.T) {
	f := newFixture()
	seedLab(t, f)
	seedLab(t, f)

	labs, err := f.uc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, labs, 2)
}

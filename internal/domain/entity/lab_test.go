package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusWebhookValue(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "success"},
		{StatusFailed, "error"},
		{StatusPending, "pending"},
		{Status("timeout"), "pending"},
		{Status(""), "pending"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.WebhookValue(), "status %q", tt.status)
	}
}

func TestWebhookLabID(t *testing.T) {
	tests := []struct {
		name  string
		cloud string
		lab   string
		want  string
	}{
		{"lowercases and trims", "AWS", "Basic ", "aws-basic"},
		{"plain", "azure", "advanced", "azure-advanced"},
		{"blank cloud", "", "x", "unknown"},
		{"blank lab", "gcp", "", "unknown"},
		{"whitespace only", "  ", "basic", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &LabRecord{CloudProvider: tt.cloud, LabName: tt.lab}
			assert.Equal(t, tt.want, record.WebhookLabID())
		})
	}
}

func TestMarkReady(t *testing.T) {
	record := &LabRecord{Status: StatusPending}
	now := time.Now().UTC()

	record.MarkReady(now)

	assert.True(t, record.IsReady())
	require.NotNil(t, record.StartedAt)
	assert.Equal(t, now, *record.StartedAt)
	assert.Nil(t, record.ErrorAt)
}

func TestMarkStatusOverwrites(t *testing.T) {
	record := &LabRecord{Status: StatusPending}

	first := time.Now().UTC()
	record.MarkStatus(StatusFailed, first)
	require.NotNil(t, record.ErrorAt)
	assert.Equal(t, StatusFailed, record.Status)

	second := first.Add(time.Minute)
	record.MarkStatus(Status("timeout"), second)
	assert.Equal(t, Status("timeout"), record.Status)
	assert.Equal(t, second, *record.ErrorAt)
}

func TestValidateForDestroy(t *testing.T) {
	complete := &LabRecord{
		LabName:       "basic",
		CloudProvider: "aws",
		Password:      "secret",
	}
	assert.NoError(t, complete.ValidateForDestroy())

	incomplete := &LabRecord{LabName: "basic"}
	err := incomplete.ValidateForDestroy()
	require.Error(t, err)

	var recordErr *IncompleteRecordError
	require.ErrorAs(t, err, &recordErr)
	assert.ElementsMatch(t, []string{"password", "cloud_provider"}, recordErr.Missing)
}

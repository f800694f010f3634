package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evolvia/student-lab-backend/pkg/config"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
	"github.com/evolvia/student-lab-backend/pkg/metrics"
)

// WorkflowAction selects the automation job to run
type WorkflowAction string

const (
	ActionApply   WorkflowAction = "apply"
	ActionDestroy WorkflowAction = "destroy"
)

// DestroyPlaceholderPassword is sent on destroy dispatches, where the
// student credentials are irrelevant
const DestroyPlaceholderPassword = "dummy"

// dispatchTimeout bounds a single workflow dispatch call
const dispatchTimeout = 30 * time.Second

// DispatchInput parameterizes a CI workflow dispatch
type DispatchInput struct {
	Username      string
	Password      string
	LabName       string
	Action        WorkflowAction
	CloudProvider string
}

// WorkflowDispatcher triggers provisioning automation in the external CI
// system. A dispatch is attempt-once: CI runs are not safe to blindly
// retry, so failures surface to the caller instead.
type WorkflowDispatcher interface {
	Dispatch(ctx context.Context, input DispatchInput) error
}

// githubDispatcher posts workflow_dispatch events to the GitHub Actions API
type githubDispatcher struct {
	cfg        config.GitHubConfig
	httpClient *http.Client
	log        logger.Logger
}

// NewGitHubDispatcher creates a workflow dispatcher for the configured
// repository
func NewGitHubDispatcher(cfg config.GitHubConfig, log logger.Logger) WorkflowDispatcher {
	return &githubDispatcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: dispatchTimeout},
		log:        log,
	}
}

type dispatchRequest struct {
	Ref    string         `json:"ref"`
	Inputs dispatchInputs `json:"inputs"`
}

type dispatchInputs struct {
	Lab             string `json:"lab"`
	Action          string `json:"action"`
	StudentUsername string `json:"student_username"`
	StudentPassword string `json:"student_password"`
}

// Dispatch implements WorkflowDispatcher. The workflow filename is the
// cloud provider concatenated with the configured suffix, so each
// provider has its own automation file in the repository.
func (d *githubDispatcher) Dispatch(ctx context.Context, input DispatchInput) error {
	workflow := input.CloudProvider + d.cfg.WorkflowFilename
	url := fmt.Sprintf("%s/repos/%s/actions/workflows/%s/dispatches", d.cfg.APIURL, d.cfg.Repo, workflow)

	body, err := json.Marshal(dispatchRequest{
		Ref: "main",
		Inputs: dispatchInputs{
			Lab:             input.LabName,
			Action:          string(input.Action),
			StudentUsername: input.Username,
			StudentPassword: input.Password,
		},
	})
	if err != nil {
		return errors.NewInternal("Failed to encode workflow dispatch request").WithError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.NewInternal("Failed to build workflow dispatch request").WithError(err)
	}
	req.Header.Set("Authorization", "Bearer "+d.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		metrics.WorkflowDispatches.WithLabelValues(string(input.Action), metrics.OutcomeError).Inc()
		return errors.NewUpstream("Failed to trigger workflow").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		metrics.WorkflowDispatches.WithLabelValues(string(input.Action), metrics.OutcomeError).Inc()
		d.log.Error("Workflow dispatch rejected",
			logger.String("workflow", workflow),
			logger.Int("status", resp.StatusCode))
		return errors.NewUpstream("Failed to trigger workflow").WithDetails(string(text))
	}

	metrics.WorkflowDispatches.WithLabelValues(string(input.Action), metrics.OutcomeSuccess).Inc()
	d.log.Info("Workflow dispatched",
		logger.String("workflow", workflow),
		logger.String("action", string(input.Action)),
		logger.String("username", input.Username))

	return nil
}

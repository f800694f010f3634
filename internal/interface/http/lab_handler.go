package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evolvia/student-lab-backend/internal/infrastructure/services"
	"github.com/evolvia/student-lab-backend/internal/usecase"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
)

// LabHandler handles HTTP requests for the lab lifecycle
type LabHandler struct {
	labUseCase usecase.LabUseCase
	log        logger.Logger
}

// NewLabHandler creates a new lab handler
func NewLabHandler(labUseCase usecase.LabUseCase, logger logger.Logger) *LabHandler {
	return &LabHandler{
		labUseCase: labUseCase,
		log:        logger,
	}
}

// Root handles GET /
// Liveness endpoint, no auth.
func (h *LabHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Student Lab Backend API is up and running",
	})
}

// StartLab handles POST /start-lab
// Generates credentials, persists a pending record, and dispatches the
// apply workflow.
func (h *LabHandler) StartLab(c *gin.Context) {
	var req struct {
		LabName       string `json:"lab_name" binding:"required"`
		CloudProvider string `json:"cloud_provider" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		LabTTL        int    `json:"lab_ttl" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	result, err := h.labUseCase.StartLab(c.Request.Context(), &usecase.StartLabInput{
		LabName:       req.LabName,
		CloudProvider: req.CloudProvider,
		Email:         req.Email,
		TTLSeconds:    req.LabTTL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"username": result.Username,
		"password": result.Password,
	})
}

// ListAll handles GET /lab-status/all
// Operator-only: enumerates every stored lab with its remaining TTL.
func (h *LabHandler) ListAll(c *gin.Context) {
	labs, err := h.labUseCase.ListAll(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"labs": labs,
	})
}

// LabReady handles POST /lab-ready
// Receives status reports from the provisioning workflow.
func (h *LabHandler) LabReady(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Status   string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	message, err := h.labUseCase.ReportStatus(c.Request.Context(), req.Username, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

// DeleteRecord handles POST /lab-delete-internal
// Operator-only: removes a lab record from the store.
func (h *LabHandler) DeleteRecord(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	message, err := h.labUseCase.DeleteRecord(c.Request.Context(), req.Username)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

// CleanUp handles POST /clean-up-lab
// Operator-only: dispatches the destroy workflow. The record stays until
// explicitly deleted.
func (h *LabHandler) CleanUp(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	message, err := h.labUseCase.TriggerDestroy(c.Request.Context(), req.Username)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

// VerifyLab handles POST /verify-lab
// Pass-through to the verification relay; the relay's JSON response is
// returned verbatim.
func (h *LabHandler) VerifyLab(c *gin.Context) {
	var req struct {
		User  string `json:"user" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		Cloud string `json:"cloud" binding:"required"`
		Lab   string `json:"lab" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	result, err := h.labUseCase.Verify(c.Request.Context(), services.VerifyInput{
		User:  req.User,
		Email: req.Email,
		Cloud: req.Cloud,
		Lab:   req.Lab,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", result)
}

// handleError handles errors and returns appropriate HTTP responses
func (h *LabHandler) handleError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			},
		})
		return
	}

	// Default to internal server error
	h.log.Error("Unhandled error", logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}

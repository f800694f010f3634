package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evolvia/student-lab-backend/internal/infrastructure/auth"
	httphandler "github.com/evolvia/student-lab-backend/internal/interface/http"
)

// RegisterHTTPRoutes sets up all HTTP/REST API routes
func RegisterHTTPRoutes(router *gin.Engine, deps *Dependencies) {
	labHandler := httphandler.NewLabHandler(deps.LabUseCase, deps.Logger)

	// Liveness and metrics (no auth required)
	router.GET("/", labHandler.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Bearer-protected endpoints, each gated by a capability
	bearer := deps.Verifier.Middleware()
	router.POST("/start-lab", bearer, auth.RequirePermission(auth.PermissionCreateLab), labHandler.StartLab)
	router.POST("/lab-ready", bearer, auth.RequirePermission(auth.PermissionNotifyLab), labHandler.LabReady)
	router.POST("/verify-lab", bearer, auth.RequirePermission(auth.PermissionVerifyLab), labHandler.VerifyLab)

	// Operator-only endpoints behind the internal shared secret
	internal := auth.InternalSecret(deps.Config.Internal.Secret, deps.Logger)
	router.GET("/lab-status/all", internal, labHandler.ListAll)
	router.POST("/lab-delete-internal", internal, labHandler.DeleteRecord)
	router.POST("/clean-up-lab", internal, labHandler.CleanUp)
}

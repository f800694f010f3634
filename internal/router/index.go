package router

import (
	"github.com/gin-gonic/gin"

	"github.com/evolvia/student-lab-backend/internal/infrastructure/auth"
	"github.com/evolvia/student-lab-backend/internal/usecase"
	"github.com/evolvia/student-lab-backend/pkg/config"
	"github.com/evolvia/student-lab-backend/pkg/logger"
)

// Dependencies holds everything the route table needs
type Dependencies struct {
	LabUseCase usecase.LabUseCase
	Verifier   *auth.Verifier
	Logger     logger.Logger
	Config     *config.Config
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, deps *Dependencies) {
	RegisterHTTPRoutes(r, deps)
}

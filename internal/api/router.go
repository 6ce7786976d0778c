package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/sourcingbee/challan/internal/api/v1"
	"github.com/sourcingbee/challan/internal/rest/middleware"
)

type Handlers struct {
	Health     *v1.HealthHandler
	Generation *v1.GenerationHandler
	Sequence   *v1.SequenceHandler
	Audit      *v1.AuditHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/health", handlers.Health.Health)

	// Generation routes
	generation := router.Group("/generation")
	{
		generation.POST("/runs", handlers.Generation.GenerateRun)
		generation.GET("/preview", handlers.Generation.PreviewNumber)
	}

	// Sequence routes
	sequences := router.Group("/sequences")
	{
		sequences.GET("", handlers.Sequence.ListSequences)
		sequences.GET("/:name", handlers.Sequence.GetSequence)
		sequences.PUT("/:name", handlers.Sequence.SetSequence)
	}

	// Audit routes
	audit := router.Group("/audit")
	{
		audit.GET("/vehicles/:id", handlers.Audit.GetVehicleAudit)
		audit.GET("/runs/:id", handlers.Audit.GetRunAudit)
		audit.GET("/summary", handlers.Audit.GetSummary)
	}
}

package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/service"
)

type HealthHandler struct {
	sequences service.SequenceService
	logger    *logger.Logger
}

func NewHealthHandler(sequences service.SequenceService, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		sequences: sequences,
		logger:    logger,
	}
}

// Health reports liveness plus which counter backend the chain committed to.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": h.sequences.ActiveBackend(),
	})
}

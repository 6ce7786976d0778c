package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourcingbee/challan/internal/api/dto"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/service"
)

type SequenceHandler struct {
	service service.SequenceService
	log     *logger.Logger
}

func NewSequenceHandler(service service.SequenceService, log *logger.Logger) *SequenceHandler {
	return &SequenceHandler{service: service, log: log}
}

func (h *SequenceHandler) ListSequences(c *gin.Context) {
	ctx := c.Request.Context()

	counters, err := h.service.ListCounters(ctx)
	if err != nil {
		h.log.Error("Failed to list sequences", "error", err)
		c.Error(err)
		return
	}

	resp := &dto.ListSequencesResponse{
		Items:   make([]*dto.SequenceResponse, 0, len(counters)),
		Total:   len(counters),
		Backend: h.service.ActiveBackend(),
	}
	for _, counter := range counters {
		resp.Items = append(resp.Items, dto.ToSequenceResponse(counter))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SequenceHandler) GetSequence(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	counter, err := h.service.GetCounter(ctx, name)
	if err != nil {
		h.log.Error("Failed to get sequence", "name", name, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSequenceResponse(counter))
}

func (h *SequenceHandler) SetSequence(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	var req dto.SetSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	value, err := h.service.SetCounter(ctx, name, req.Value, req.Force)
	if err != nil {
		h.log.Error("Failed to set sequence", "name", name, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.SetSequenceResponse{Name: name, Value: value})
}

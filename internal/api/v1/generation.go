package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourcingbee/challan/internal/api/dto"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/service"
)

type GenerationHandler struct {
	service   service.ConsolidationService
	sequences service.SequenceService
	log       *logger.Logger
}

func NewGenerationHandler(service service.ConsolidationService, sequences service.SequenceService, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{service: service, sequences: sequences, log: log}
}

// GenerateRun consolidates a vehicle's manifest into numbered document
// bundles. Partial results are a success response: skipped groups and hard
// failures ride alongside the bundles that did get numbers.
func (h *GenerationHandler) GenerateRun(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.GenerateRunRequest
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

	result, err := h.service.GenerateRun(ctx, req.FacilityID, req.VehicleID, req.ToLineItems())
	if err != nil {
		h.log.Error("Failed to run generation", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGenerateRunResponse(result))
}

// PreviewNumber renders the next document number for a (facility, seller,
// hub) triple without consuming it. Useful for operators checking what the
// next challan will be; the value shown is not reserved.
func (h *GenerationHandler) PreviewNumber(c *gin.Context) {
	ctx := c.Request.Context()

	facilityID := c.Query("facility_id")
	sellerID := c.Query("seller_id")
	hubID := c.Query("hub_id")
	if facilityID == "" || sellerID == "" {
		c.Error(ierr.NewError("facility_id and seller_id are required").
			WithHint("Pass facility_id and seller_id as query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	res, skip := h.sequences.Resolve(ctx, facilityID, sellerID, hubID)
	if skip != nil {
		c.Error(ierr.NewError("group is not eligible for a document number").
			WithHint(skip.Detail).
			WithReportableDetails(map[string]any{"reason": skip.Reason}).
			Mark(ierr.ErrValidation))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_number": h.sequences.PeekDocumentNumber(ctx, res),
		"sequence_name":   res.SequenceName,
	})
}

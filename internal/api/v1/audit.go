package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sourcingbee/challan/internal/api/dto"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/service"
)

type AuditHandler struct {
	service service.AuditService
	log     *logger.Logger
}

func NewAuditHandler(service service.AuditService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{service: service, log: log}
}

func (h *AuditHandler) GetVehicleAudit(c *gin.Context) {
	ctx := c.Request.Context()
	vehicleID := c.Param("id")

	records, err := h.service.QueryByVehicle(ctx, vehicleID)
	if err != nil {
		h.log.Error("Failed to query audit records", "vehicle_id", vehicleID, "error", err)
		c.Error(err)
		return
	}

	resp := &dto.ListAuditRecordsResponse{
		Items: make([]*dto.AuditRecordResponse, 0, len(records)),
		Total: len(records),
	}
	for _, record := range records {
		resp.Items = append(resp.Items, dto.ToAuditRecordResponse(record))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuditHandler) GetRunAudit(c *gin.Context) {
	ctx := c.Request.Context()
	runID := c.Param("id")

	records, err := h.service.QueryByRun(ctx, runID)
	if err != nil {
		h.log.Error("Failed to query audit records", "run_id", runID, "error", err)
		c.Error(err)
		return
	}

	resp := &dto.ListAuditRecordsResponse{
		Items: make([]*dto.AuditRecordResponse, 0, len(records)),
		Total: len(records),
	}
	for _, record := range records {
		resp.Items = append(resp.Items, dto.ToAuditRecordResponse(record))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuditHandler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.service.ExportSummary(ctx)
	if err != nil {
		h.log.Error("Failed to export audit summary", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.AuditSummaryResponse{
		TotalRecords:    summary.TotalRecords,
		TotalVehicles:   summary.TotalVehicles,
		TotalIncrements: summary.TotalIncrements,
		BySequence:      summary.BySequence,
		GeneratedAt:     summary.GeneratedAt,
	})
}

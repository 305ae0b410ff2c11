package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/foodbridge-api/internal/application/service"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/dto/request"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/dto/response"
	"github.com/sangkips/foodbridge-api/pkg/utils"
)

const (
	contentTypePDF = "application/pdf"
	contentTypeZip = "application/zip"
)

// ReceiptHandler handles receipt HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// GetReceipt returns the tax receipt PDF of one order
// GET /api/v1/receipt?id=<orderId>
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	rawID := c.Query("id")
	if rawID == "" {
		response.BadRequest(c, "Order ID is required")
		return
	}
	orderID, err := utils.ParseUUID(rawID)
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.receiptService.GenerateReceipt(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Receipt-Number", result.Receipt.ReceiptNumber)
	if result.Reissued {
		c.Header("X-Receipt-Reissued", "true")
	}
	response.Attachment(c, contentTypePDF, result.Filename, result.Document)
}

// GetBatchReceipts returns a zip with the receipts of every eligible order in a date range
// GET /api/v1/receipts/batch?startDate=&endDate=[&donorId=][&batchId=]
func (h *ReceiptHandler) GetBatchReceipts(c *gin.Context) {
	var query request.BatchReceiptQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.receiptService.GenerateBatch(c.Request.Context(), service.BatchRequest{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		DonorID:   query.DonorID,
		BatchID:   query.BatchID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Batch-ID", result.BatchID)
	c.Header("X-Receipts-Generated", strconv.Itoa(result.Generated()))
	c.Header("X-Receipts-Failed", strconv.Itoa(result.Failed()))
	c.Header("X-Receipts-Skipped", strconv.Itoa(result.Skipped()))
	response.Attachment(c, contentTypeZip, result.Filename, result.Archive)
}

// ListReceipts returns issued receipts
// GET /api/v1/receipts
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	var query request.ListReceiptsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params, err := query.ToFilterParams()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.receiptService.ListReceipts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipts retrieved successfully", result)
}

// GetBatch returns a stored batch run with its manifest
// GET /api/v1/receipts/batches/:batchId
func (h *ReceiptHandler) GetBatch(c *gin.Context) {
	run, err := h.receiptService.GetBatch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Batch retrieved successfully", run)
}

// EmailReceipt mails the receipt PDF of an order to its donor
// POST /api/v1/receipts/:orderId/email
func (h *ReceiptHandler) EmailReceipt(c *gin.Context) {
	orderID, err := utils.ParseUUID(c.Param("orderId"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.receiptService.EmailReceipt(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt emailed successfully", result)
}

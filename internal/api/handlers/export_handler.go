// internal/api/handlers/export_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/export"
	"github.com/tobihealthops/requiva-go/internal/service"
)

type ExportHandler struct {
	orders *service.OrderService
}

func NewExportHandler(orders *service.OrderService) *ExportHandler {
	return &ExportHandler{orders: orders}
}

// ExportCSV downloads the full order book as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	recs, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, recs); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build csv export")
		return
	}
	h.send(c, buf.Bytes(), "text/csv", "csv")
}

// ExportXLSX downloads the full order book as a spreadsheet.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	recs, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, recs); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build xlsx export")
		return
	}
	h.send(c, buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
}

func (h *ExportHandler) load(c *gin.Context) ([]domain.OrderRecord, bool) {
	recs, err := h.orders.List(c.Request.Context(), domain.OrderFilter{})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load orders")
		return nil, false
	}
	return recs, true
}

func (h *ExportHandler) send(c *gin.Context, data []byte, contentType, ext string) {
	name := fmt.Sprintf("Requiva_Orders_%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}

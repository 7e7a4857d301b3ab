// internal/api/handlers/order_handler.go
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/service"
	"github.com/tobihealthops/requiva-go/internal/store"
)

type OrderHandler struct {
	orders   *service.OrderService
	insights *service.InsightService
}

func NewOrderHandler(orders *service.OrderService, insights *service.InsightService) *OrderHandler {
	return &OrderHandler{orders: orders, insights: insights}
}

// orderPayload is the wire shape of an order. JSON has no NaN, so
// numeric fields are pointers: absent means "missing", which maps to
// the NaN marker internally.
type orderPayload struct {
	ReqID        string   `json:"req_id"`
	Item         string   `json:"item"`
	Quantity     *float64 `json:"quantity"`
	UnitPrice    *float64 `json:"unit_price"`
	Total        *float64 `json:"total"`
	Vendor       string   `json:"vendor"`
	CatalogNo    string   `json:"catalog_no"`
	GrantCode    string   `json:"grant_code"`
	POSource     string   `json:"po_source"`
	PONumber     string   `json:"po_number"`
	Notes        string   `json:"notes"`
	OrderedBy    string   `json:"ordered_by"`
	DateOrdered  string   `json:"date_ordered"`
	DateReceived string   `json:"date_received"`
	ReceivedBy   string   `json:"received_by"`
	Location     string   `json:"location"`
}

func (p orderPayload) toRecord() domain.OrderRecord {
	return domain.OrderRecord{
		ReqID:        p.ReqID,
		Item:         p.Item,
		Quantity:     floatOrMissing(p.Quantity),
		UnitPrice:    floatOrMissing(p.UnitPrice),
		Total:        floatOrMissing(p.Total),
		Vendor:       p.Vendor,
		CatalogNo:    p.CatalogNo,
		GrantCode:    p.GrantCode,
		POSource:     p.POSource,
		PONumber:     p.PONumber,
		Notes:        p.Notes,
		OrderedBy:    p.OrderedBy,
		DateOrdered:  p.DateOrdered,
		DateReceived: p.DateReceived,
		ReceivedBy:   p.ReceivedBy,
		Location:     p.Location,
	}
}

func payloadFromRecord(rec domain.OrderRecord) orderPayload {
	return orderPayload{
		ReqID:        rec.ReqID,
		Item:         rec.Item,
		Quantity:     presentFloat(rec.Quantity),
		UnitPrice:    presentFloat(rec.UnitPrice),
		Total:        presentFloat(rec.Total),
		Vendor:       rec.Vendor,
		CatalogNo:    rec.CatalogNo,
		GrantCode:    rec.GrantCode,
		POSource:     rec.POSource,
		PONumber:     rec.PONumber,
		Notes:        rec.Notes,
		OrderedBy:    rec.OrderedBy,
		DateOrdered:  rec.DateOrdered,
		DateReceived: rec.DateReceived,
		ReceivedBy:   rec.ReceivedBy,
		Location:     rec.Location,
	}
}

func payloadsFromRecords(recs []domain.OrderRecord) []orderPayload {
	out := make([]orderPayload, len(recs))
	for i, rec := range recs {
		out[i] = payloadFromRecord(rec)
	}
	return out
}

func floatOrMissing(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func presentFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ListOrders returns orders matching the optional vendor, grant,
// po_source and received query filters.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := domain.OrderFilter{
		Vendor:   strings.TrimSpace(c.Query("vendor")),
		Grant:    strings.TrimSpace(c.Query("grant")),
		POSource: strings.TrimSpace(c.Query("po_source")),
	}
	switch strings.ToLower(c.Query("received")) {
	case "true", "1", "yes":
		v := true
		filter.Received = &v
	case "false", "0", "no":
		v := false
		filter.Received = &v
	}

	recs, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": payloadsFromRecords(recs), "count": len(recs)})
}

// CreateOrder validates and stores a new order, assigning a
// requisition id and computed total when absent. The response includes
// the anomaly check so the UI can warn about unusual orders at entry
// time.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var payload orderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}

	rec, err := h.orders.Create(c.Request.Context(), payload.toRecord())
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp := gin.H{"order": payloadFromRecord(rec)}
	if score, err := h.insights.ScoreOrder(c.Request.Context(), rec); err == nil && score.Available {
		resp["anomaly_check"] = score
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	rec, err := h.orders.Get(c.Request.Context(), c.Param("req_id"))
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": payloadFromRecord(rec)})
}

type receiveRequest struct {
	DateReceived string `json:"date_received"`
	ReceivedBy   string `json:"received_by"`
	Location     string `json:"location"`
}

// ReceiveOrder marks an order received, stamping today when no date is
// given.
func (h *OrderHandler) ReceiveOrder(c *gin.Context) {
	var req receiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid receive payload: "+err.Error())
		return
	}

	reqID := c.Param("req_id")
	err := h.orders.MarkReceived(c.Request.Context(), reqID, req.DateReceived, req.ReceivedBy, req.Location)
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to mark order received")
		return
	}
	c.JSON(http.StatusOK, gin.H{"req_id": reqID, "received": true})
}

// PendingOrders lists unreceived orders, oldest first.
func (h *OrderHandler) PendingOrders(c *gin.Context) {
	recs, err := h.orders.PendingReceipt(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list pending orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": payloadsFromRecords(recs), "count": len(recs)})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PaymentResponse is the HTTP response for payment data.
type PaymentResponse struct {
	ID          string  `json:"id"`
	RideID      string  `json:"ride_id,omitempty"`
	RequestID   string  `json:"request_id"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	ProviderRef string  `json:"provider_ref,omitempty"`
	PaymentDate string  `json:"payment_date"`
}

// PaymentHistoryResponse is the HTTP response for a rider's payments.
type PaymentHistoryResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	TotalPaid float64           `json:"total_paid"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		RideID:      p.RideID,
		RequestID:   p.RequestID,
		Amount:      p.Amount,
		Status:      string(p.Status),
		ProviderRef: p.ProviderRef,
		PaymentDate: p.PaymentDate.Format(timeLayout),
	}
}

// Pay handles POST /v1/ride-requests/:id/pay
func (h *PaymentHandler) Pay(c *gin.Context) {
	payment, err := h.paymentService.PayForRequest(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// History handles GET /v1/payments
func (h *PaymentHandler) History(c *gin.Context) {
	summary, err := h.paymentService.History(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := PaymentHistoryResponse{
		Payments:  make([]PaymentResponse, 0, len(summary.Payments)),
		TotalPaid: summary.TotalPaid,
	}
	for _, p := range summary.Payments {
		response.Payments = append(response.Payments, toPaymentResponse(p))
	}
	respondJSON(c, http.StatusOK, response)
}

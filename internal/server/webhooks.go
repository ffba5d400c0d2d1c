package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	paymentdomain "github.com/congrego/congrego/internal/payment/domain"
	"github.com/congrego/congrego/internal/payment/gateway"
)

// AsaasWebhook ingests processor callbacks. Replays answer 200 with the
// current payment state; the processor retries anything else.
func (s *Server) AsaasWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	event, err := gateway.ParseWebhook(body)
	if err != nil {
		s.log.Warn("malformed asaas webhook", zap.Error(err))
		AbortWithError(c, paymentdomain.ErrInvalidInstallment)
		return
	}
	if !event.Confirmed() {
		// Unrelated lifecycle events are acknowledged and dropped.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	payment, err := s.paymentSvc.ConfirmInstallment(c.Request.Context(), paymentdomain.InstallmentNotification{
		CheckoutID:        event.CheckoutID,
		AsaasPaymentID:    event.AsaasPaymentID,
		Value:             event.Value,
		NetValue:          event.NetValue,
		InstallmentNumber: event.InstallmentNumber,
		InstallmentCount:  event.InstallmentCount,
		PaidAt:            event.PaidAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment, ""))
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	eventdomain "github.com/congrego/congrego/internal/event/domain"
	inscriptiondomain "github.com/congrego/congrego/internal/inscription/domain"
	ledgerdomain "github.com/congrego/congrego/internal/ledger/domain"
	paymentdomain "github.com/congrego/congrego/internal/payment/domain"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e apiError) Error() string { return e.Code }

func invalidRequestError() apiError {
	return apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) apiError {
	return apiError{Status: http.StatusBadRequest, Code: code, Message: field + ": " + message}
}

// statusByError maps domain sentinels to HTTP responses. Anything unmapped
// is a storage failure and surfaces as a generic 500 with no detail.
var statusByError = map[error]apiError{
	paymentdomain.ErrMissingInscriptionID:     {Status: http.StatusBadRequest, Code: "missing_inscription_id", Message: "at least one inscription is required"},
	paymentdomain.ErrInvalidInscriptionID:     {Status: http.StatusBadRequest, Code: "invalid_inscription_id", Message: "one or more inscriptions do not exist"},
	paymentdomain.ErrInscriptionNotReleased:   {Status: http.StatusConflict, Code: "inscription_not_released_for_payment", Message: "inscription is still under review and cannot receive payments"},
	paymentdomain.ErrOverpaymentNotAllowed:    {Status: http.StatusUnprocessableEntity, Code: "overpayment_not_allowed", Message: "payment value exceeds the outstanding debt"},
	paymentdomain.ErrPaymentNotFound:          {Status: http.StatusNotFound, Code: "payment_not_found", Message: "payment not found"},
	paymentdomain.ErrInvalidStatusTransition:  {Status: http.StatusConflict, Code: "invalid_status_transition", Message: "payment status does not allow this operation"},
	paymentdomain.ErrInvalidValue:             {Status: http.StatusBadRequest, Code: "invalid_value", Message: "value must be positive"},
	paymentdomain.ErrInvalidMethod:            {Status: http.StatusBadRequest, Code: "invalid_method", Message: "unknown payment method"},
	paymentdomain.ErrInvalidPayer:             {Status: http.StatusBadRequest, Code: "invalid_payer", Message: "exactly one of account or guest payer is required"},
	paymentdomain.ErrInvalidInstallment:       {Status: http.StatusBadRequest, Code: "invalid_installment", Message: "malformed installment notification"},
	paymentdomain.ErrInstallmentsExceeded:     {Status: http.StatusConflict, Code: "installments_exceeded", Message: "all installments are already confirmed"},
	paymentdomain.ErrPaidAboveTotal:           {Status: http.StatusUnprocessableEntity, Code: "paid_above_total", Message: "confirmed installments would exceed the payment total"},
	paymentdomain.ErrMissingExternalReference: {Status: http.StatusBadRequest, Code: "missing_external_reference", Message: "notification carries no checkout reference"},
	paymentdomain.ErrGatewayUnavailable:       {Status: http.StatusBadGateway, Code: "checkout_gateway_unavailable", Message: "checkout gateway is unavailable"},
	inscriptiondomain.ErrInscriptionNotFound:  {Status: http.StatusNotFound, Code: "inscription_not_found", Message: "inscription not found"},
	eventdomain.ErrEventNotFound:              {Status: http.StatusNotFound, Code: "event_not_found", Message: "event not found"},
	ledgerdomain.ErrInvalidEvent:              {Status: http.StatusBadRequest, Code: "invalid_event", Message: "event id is required"},
	ledgerdomain.ErrInvalidMovementType:       {Status: http.StatusBadRequest, Code: "invalid_movement_type", Message: "movement type must be INCOME or EXPENSE"},
	ledgerdomain.ErrInvalidValue:              {Status: http.StatusBadRequest, Code: "invalid_value", Message: "value must be positive"},
	ledgerdomain.ErrMovementNotFound:          {Status: http.StatusNotFound, Code: "movement_not_found", Message: "financial movement not found"},
}

// AbortWithError writes the mapped response for err and stops the handler
// chain.
func AbortWithError(c *gin.Context, err error) {
	var api apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"code": api.Code, "message": api.Message})
		return
	}
	for sentinel, mapped := range statusByError {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(mapped.Status, gin.H{"code": mapped.Code, "message": mapped.Message})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal error"})
}

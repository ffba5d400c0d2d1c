package domain

import "errors"

var (
	ErrMissingInscriptionID     = errors.New("missing_inscription_id")
	ErrInvalidInscriptionID     = errors.New("invalid_inscription_id")
	ErrInscriptionNotReleased   = errors.New("inscription_not_released_for_payment")
	ErrOverpaymentNotAllowed    = errors.New("overpayment_not_allowed")
	ErrPaymentNotFound          = errors.New("payment_not_found")
	ErrInvalidStatusTransition  = errors.New("invalid_status_transition")
	ErrInvalidValue             = errors.New("invalid_value")
	ErrInvalidMethod            = errors.New("invalid_method")
	ErrInvalidPayer             = errors.New("invalid_payer")
	ErrInvalidInstallment       = errors.New("invalid_installment")
	ErrInstallmentsExceeded     = errors.New("installments_exceeded")
	ErrPaidAboveTotal           = errors.New("paid_above_total")
	ErrGatewayUnavailable       = errors.New("checkout_gateway_unavailable")
	ErrMissingExternalReference = errors.New("missing_external_reference")
)

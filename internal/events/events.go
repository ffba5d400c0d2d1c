package events

// Notification event types emitted by the reconciliation protocol. They are
// published to the outbox inside the reconciliation transaction and
// dispatched after commit.
const (
	EventPaymentApproved             = "payment.approved"
	EventPaymentRejected             = "payment.rejected"
	EventPaymentReverted             = "payment.reverted"
	EventPaymentInstallmentConfirmed = "payment.installment_confirmed"
	EventInscriptionPaid             = "inscription.paid"
)

// PaymentPayload captures the minimal data a notifier needs about a payment.
type PaymentPayload struct {
	PaymentID string `json:"payment_id"`
	EventID   string `json:"event_id"`
	Value     string `json:"value"`
	Method    string `json:"method,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"payment_id": p.PaymentID,
		"event_id":   p.EventID,
		"value":      p.Value,
	}
	if p.Method != "" {
		payload["method"] = p.Method
	}
	if p.Reason != "" {
		payload["reason"] = p.Reason
	}
	return payload
}

// InscriptionPaidPayload identifies an inscription that reached settlement.
type InscriptionPaidPayload struct {
	InscriptionID string `json:"inscription_id"`
	PaymentID     string `json:"payment_id"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p InscriptionPaidPayload) ToMap() map[string]any {
	return map[string]any{
		"inscription_id": p.InscriptionID,
		"payment_id":     p.PaymentID,
	}
}

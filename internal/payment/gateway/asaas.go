package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 15 * time.Second

// AsaasClient talks to the Asaas checkout API.
type AsaasClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAsaasClient(baseURL, apiKey string) *AsaasClient {
	return &AsaasClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type asaasCheckoutRequest struct {
	ExternalReference string `json:"externalReference"`
	Value             string `json:"value"`
	InstallmentCount  int    `json:"installmentCount,omitempty"`
	CustomerName      string `json:"customerName,omitempty"`
	CustomerEmail     string `json:"customerEmail,omitempty"`
	Description       string `json:"description,omitempty"`
}

type asaasCheckoutResponse struct {
	ID                string `json:"id"`
	Link              string `json:"link"`
	ExternalReference string `json:"externalReference"`
	Status            string `json:"status"`
}

func (c *AsaasClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	body, err := json.Marshal(asaasCheckoutRequest{
		ExternalReference: req.ExternalReference,
		Value:             req.Value.StringFixed(2),
		InstallmentCount:  req.Installments,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		Description:       req.Description,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("access_token", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("asaas checkout: unexpected status %d", resp.StatusCode)
	}

	var parsed asaasCheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.ID == "" {
		return nil, errors.New("asaas checkout: missing id")
	}
	return &CheckoutSession{
		ID:                parsed.ID,
		Link:              parsed.Link,
		ExternalReference: parsed.ExternalReference,
		Status:            parsed.Status,
	}, nil
}

type asaasWebhookPayload struct {
	Event   string `json:"event"`
	Payment struct {
		ID                string          `json:"id"`
		Checkout          string          `json:"checkout"`
		ExternalReference string          `json:"externalReference"`
		Value             decimal.Decimal `json:"value"`
		NetValue          decimal.Decimal `json:"netValue"`
		InstallmentNumber int             `json:"installmentNumber"`
		InstallmentCount  int             `json:"installmentCount"`
		PaymentDate       string          `json:"paymentDate"`
	} `json:"payment"`
}

// ParseWebhook normalizes an Asaas callback body. Monetary amounts arrive as
// JSON numbers and decode straight into decimals, so they never pass through
// binary floating point.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload asaasWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Event) == "" || strings.TrimSpace(payload.Payment.ID) == "" {
		return nil, errors.New("asaas webhook: malformed payload")
	}

	paidAt := time.Now().UTC()
	if payload.Payment.PaymentDate != "" {
		if parsed, err := time.Parse("2006-01-02", payload.Payment.PaymentDate); err == nil {
			paidAt = parsed
		}
	}

	return &WebhookEvent{
		Event:             payload.Event,
		AsaasPaymentID:    payload.Payment.ID,
		CheckoutID:        payload.Payment.Checkout,
		Value:             payload.Payment.Value.Round(2),
		NetValue:          payload.Payment.NetValue.Round(2),
		InstallmentNumber: payload.Payment.InstallmentNumber,
		InstallmentCount:  payload.Payment.InstallmentCount,
		PaidAt:            paidAt,
	}, nil
}

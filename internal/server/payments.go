package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	paymentdomain "github.com/congrego/congrego/internal/payment/domain"
)

type createPaymentRequest struct {
	EventID        string          `json:"event_id"`
	AccountID      string          `json:"account_id"`
	GuestName      string          `json:"guest_name"`
	GuestEmail     string          `json:"guest_email"`
	Method         string          `json:"method"`
	TotalValue     decimal.Decimal `json:"total_value"`
	Installments   int             `json:"installments"`
	ImageURL       string          `json:"image_url"`
	InscriptionIDs []string        `json:"inscription_ids"`
	CreateCheckout bool            `json:"create_checkout"`
}

type paymentResponse struct {
	ID                string  `json:"id"`
	EventID           string  `json:"event_id"`
	Status            string  `json:"status"`
	TotalValue        string  `json:"total_value"`
	TotalPaid         string  `json:"total_paid"`
	TotalNetValue     string  `json:"total_net_value"`
	Installments      int     `json:"installments"`
	PaidInstallments  int     `json:"paid_installments"`
	Method            string  `json:"method"`
	RejectionReason   *string `json:"rejection_reason,omitempty"`
	ApprovedBy        *string `json:"approved_by,omitempty"`
	AsaasCheckoutID   *string `json:"asaas_checkout_id,omitempty"`
	ExternalReference *string `json:"external_reference,omitempty"`
	CheckoutLink      string  `json:"checkout_link,omitempty"`
}

func toPaymentResponse(payment *paymentdomain.Payment, checkoutLink string) paymentResponse {
	resp := paymentResponse{
		ID:                payment.ID.String(),
		EventID:           payment.EventID.String(),
		Status:            string(payment.Status),
		TotalValue:        payment.TotalValue.StringFixed(2),
		TotalPaid:         payment.TotalPaid.StringFixed(2),
		TotalNetValue:     payment.TotalNetValue.StringFixed(2),
		Installments:      payment.Installments,
		PaidInstallments:  payment.PaidInstallments,
		Method:            string(payment.Method),
		RejectionReason:   payment.RejectionReason,
		AsaasCheckoutID:   payment.AsaasCheckoutID,
		ExternalReference: payment.ExternalReference,
		CheckoutLink:      checkoutLink,
	}
	if payment.ApprovedBy != nil {
		approvedBy := payment.ApprovedBy.String()
		resp.ApprovedBy = &approvedBy
	}
	return resp
}

func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	eventID, err := snowflake.ParseString(strings.TrimSpace(req.EventID))
	if err != nil {
		AbortWithError(c, newValidationError("event_id", "invalid_event_id", "invalid event id"))
		return
	}

	var payer paymentdomain.Payer
	if strings.TrimSpace(req.AccountID) != "" {
		accountID, err := snowflake.ParseString(strings.TrimSpace(req.AccountID))
		if err != nil {
			AbortWithError(c, newValidationError("account_id", "invalid_account_id", "invalid account id"))
			return
		}
		payer = paymentdomain.AccountPayer(accountID)
	} else {
		payer = paymentdomain.GuestPayer(req.GuestName, req.GuestEmail)
	}

	inscriptionIDs := make([]snowflake.ID, 0, len(req.InscriptionIDs))
	for _, raw := range req.InscriptionIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, paymentdomain.ErrInvalidInscriptionID)
			return
		}
		inscriptionIDs = append(inscriptionIDs, id)
	}

	response, err := s.paymentSvc.Create(c.Request.Context(), paymentdomain.CreateRequest{
		EventID:        eventID,
		Payer:          payer,
		Method:         paymentdomain.Method(strings.ToUpper(strings.TrimSpace(req.Method))),
		TotalValue:     req.TotalValue,
		Installments:   req.Installments,
		ImageURL:       strings.TrimSpace(req.ImageURL),
		InscriptionIDs: inscriptionIDs,
		CreateCheckout: req.CreateCheckout,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPaymentResponse(response.Payment, response.CheckoutLink))
}

func (s *Server) GetPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrPaymentNotFound)
		return
	}
	payment, err := s.paymentSvc.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment, ""))
}

func (s *Server) ApprovePayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrPaymentNotFound)
		return
	}
	reviewerID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader("X-Reviewer-Id")))
	if err != nil {
		AbortWithError(c, newValidationError("X-Reviewer-Id", "missing_reviewer", "reviewer id header is required"))
		return
	}
	payment, err := s.paymentSvc.Approve(c.Request.Context(), paymentID, reviewerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment, ""))
}

func (s *Server) RejectPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrPaymentNotFound)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		AbortWithError(c, newValidationError("reason", "missing_reason", "rejection reason is required"))
		return
	}

	payment, err := s.paymentSvc.Reject(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment, ""))
}

func (s *Server) RevertPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrPaymentNotFound)
		return
	}
	payment, err := s.paymentSvc.Revert(c.Request.Context(), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment, ""))
}

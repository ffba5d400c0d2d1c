package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	ledgerdomain "github.com/congrego/congrego/internal/ledger/domain"
)

// CreateMovement records a direct income or expense row. On-site
// registrations, ticket sales and event expenses use this single-entry path;
// payment approvals and installment confirmations write their rows through
// the reconciliation service instead.
func (s *Server) CreateMovement(c *gin.Context) {
	var req struct {
		EventID     string          `json:"event_id"`
		AccountID   string          `json:"account_id"`
		Type        string          `json:"type"`
		Value       decimal.Decimal `json:"value"`
		Description string          `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	eventID, err := snowflake.ParseString(strings.TrimSpace(req.EventID))
	if err != nil {
		AbortWithError(c, ledgerdomain.ErrInvalidEvent)
		return
	}

	var accountID *snowflake.ID
	if strings.TrimSpace(req.AccountID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.AccountID))
		if err != nil {
			AbortWithError(c, newValidationError("account_id", "invalid_account_id", "invalid account id"))
			return
		}
		accountID = &parsed
	}

	movement, err := s.ledgerSvc.Create(c.Request.Context(), ledgerdomain.CreateMovement{
		EventID:     eventID,
		AccountID:   accountID,
		Type:        ledgerdomain.MovementType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Value:       req.Value,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       movement.ID.String(),
		"event_id": movement.EventID.String(),
		"type":     string(movement.Type),
		"value":    movement.Value.StringFixed(2),
	})
}

func (s *Server) ListMovements(c *gin.Context) {
	eventID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, ledgerdomain.ErrInvalidEvent)
		return
	}

	movements, err := s.ledgerSvc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(movements))
	for _, movement := range movements {
		out = append(out, gin.H{
			"id":          movement.ID.String(),
			"event_id":    movement.EventID.String(),
			"type":        string(movement.Type),
			"value":       movement.Value.StringFixed(2),
			"description": movement.Description,
			"created_at":  movement.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"movements": out})
}

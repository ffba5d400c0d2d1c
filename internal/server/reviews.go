package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	auditdomain "github.com/congrego/congrego/internal/audit/domain"
	paymentdomain "github.com/congrego/congrego/internal/payment/domain"
)

type reviewResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	ActorType string         `json:"actor_type"`
	ActorID   *string        `json:"actor_id,omitempty"`
	IPAddress *string        `json:"ip_address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

func toReviewResponse(entry *auditdomain.ReviewLog) reviewResponse {
	return reviewResponse{
		ID:        entry.ID.String(),
		Action:    entry.Action,
		ActorType: entry.ActorType,
		ActorID:   entry.ActorID,
		IPAddress: entry.IPAddress,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListPaymentReviews returns the decision trail for one payment, newest
// first.
func (s *Server) ListPaymentReviews(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrPaymentNotFound)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := s.audit.ListByPayment(c.Request.Context(), paymentID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]reviewResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toReviewResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"reviews": out})
}

package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/audit/domain"
	"github.com/congrego/congrego/internal/auditcontext"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Recorder {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, entry domain.Entry) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	if entry.PaymentID == 0 || entry.Action == "" {
		return errors.New("invalid_review_entry")
	}

	actorType, actorID := auditcontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = string(domain.ActorTypeSystem)
	}

	row := &domain.ReviewLog{
		ID:        s.genID.Generate(),
		PaymentID: entry.PaymentID,
		Action:    entry.Action,
		ActorType: actorType,
		Metadata:  datatypes.JSONMap{},
	}
	if actorID != "" {
		row.ActorID = &actorID
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		row.IPAddress = &ip
	}
	if agent := auditcontext.UserAgentFromContext(ctx); agent != "" {
		row.UserAgent = &agent
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		row.Metadata["request_id"] = requestID
	}
	for key, value := range entry.Metadata {
		row.Metadata[key] = value
	}

	return s.repo.Insert(ctx, tx, row)
}

func (s *Service) ListByPayment(ctx context.Context, paymentID snowflake.ID, limit int) ([]*domain.ReviewLog, error) {
	return s.repo.ListByPayment(ctx, s.db, paymentID, limit)
}

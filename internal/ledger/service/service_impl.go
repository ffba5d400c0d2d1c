package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/congrego/congrego/internal/ledger/domain"
	"github.com/congrego/congrego/internal/ledger/repository"
	"github.com/congrego/congrego/internal/money"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, movement ledgerdomain.CreateMovement) (*ledgerdomain.FinancialMovement, error) {
	return s.CreateTx(ctx, s.db, movement)
}

func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, movement ledgerdomain.CreateMovement) (*ledgerdomain.FinancialMovement, error) {
	if movement.EventID == 0 {
		return nil, ledgerdomain.ErrInvalidEvent
	}
	switch movement.Type {
	case ledgerdomain.MovementTypeIncome, ledgerdomain.MovementTypeExpense:
	default:
		return nil, ledgerdomain.ErrInvalidMovementType
	}
	if !money.IsPositive(movement.Value) {
		return nil, ledgerdomain.ErrInvalidValue
	}

	row := &ledgerdomain.FinancialMovement{
		ID:          s.genID.Generate(),
		EventID:     movement.EventID,
		AccountID:   movement.AccountID,
		Type:        movement.Type,
		Value:       movement.Value,
		Description: movement.Description,
	}
	if err := s.repo.Insert(ctx, tx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) DeleteTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*ledgerdomain.FinancialMovement, error) {
	movement, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if movement == nil {
		return nil, ledgerdomain.ErrMovementNotFound
	}
	deleted, err := s.repo.Delete(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ledgerdomain.ErrMovementNotFound
	}
	s.log.Info("financial movement compensated",
		zap.String("movement_id", id.String()),
		zap.String("value", movement.Value.StringFixed(2)),
	)
	return movement, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID snowflake.ID) ([]ledgerdomain.FinancialMovement, error) {
	if eventID == 0 {
		return nil, ledgerdomain.ErrInvalidEvent
	}
	return s.repo.ListByEvent(ctx, s.db, eventID)
}

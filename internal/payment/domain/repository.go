package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByCheckoutID(ctx context.Context, db *gorm.DB, checkoutID string) (*Payment, error)
}

type AllocationRepository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, allocations []Allocation) error
	FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]Allocation, error)
	FindByInscriptionIDs(ctx context.Context, db *gorm.DB, inscriptionIDs []snowflake.ID) ([]Allocation, error)
}

type InstallmentRepository interface {
	// Insert stores the installment, reporting false when a row with the
	// same processor payment id already exists.
	Insert(ctx context.Context, db *gorm.DB, installment *Installment) (bool, error)
	FindByAsaasPaymentID(ctx context.Context, db *gorm.DB, asaasPaymentID string) (*Installment, error)
	FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]Installment, error)
}

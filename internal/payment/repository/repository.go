package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/congrego/congrego/internal/payment/domain"
	pkgdb "github.com/congrego/congrego/pkg/db"
)

type paymentRepository struct{}

// Provide builds the gorm-backed payment repository.
func Provide() domain.Repository {
	return &paymentRepository{}
}

func (r *paymentRepository) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	payment.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := pkgdb.Locking(db.WithContext(ctx)).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByCheckoutID(ctx context.Context, db *gorm.DB, checkoutID string) (*domain.Payment, error) {
	checkoutID = strings.TrimSpace(checkoutID)
	if checkoutID == "" {
		return nil, nil
	}
	var payment domain.Payment
	err := db.WithContext(ctx).First(&payment, "asaas_checkout_id = ?", checkoutID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

type allocationRepository struct{}

// ProvideAllocations builds the gorm-backed allocation repository.
func ProvideAllocations() domain.AllocationRepository {
	return &allocationRepository{}
}

func (r *allocationRepository) InsertBatch(ctx context.Context, db *gorm.DB, allocations []domain.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&allocations).Error
}

func (r *allocationRepository) FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.Allocation, error) {
	var allocations []domain.Allocation
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *allocationRepository) FindByInscriptionIDs(ctx context.Context, db *gorm.DB, inscriptionIDs []snowflake.ID) ([]domain.Allocation, error) {
	if len(inscriptionIDs) == 0 {
		return nil, nil
	}
	var allocations []domain.Allocation
	err := db.WithContext(ctx).
		Where("inscription_id IN ?", inscriptionIDs).
		Order("id ASC").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

type installmentRepository struct{}

// ProvideInstallments builds the gorm-backed installment repository.
func ProvideInstallments() domain.InstallmentRepository {
	return &installmentRepository{}
}

func (r *installmentRepository) Insert(ctx context.Context, db *gorm.DB, installment *domain.Installment) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asaas_payment_id"}},
			DoNothing: true,
		}).
		Create(installment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *installmentRepository) FindByAsaasPaymentID(ctx context.Context, db *gorm.DB, asaasPaymentID string) (*domain.Installment, error) {
	asaasPaymentID = strings.TrimSpace(asaasPaymentID)
	if asaasPaymentID == "" {
		return nil, nil
	}
	var installment domain.Installment
	err := db.WithContext(ctx).First(&installment, "asaas_payment_id = ?", asaasPaymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.Installment, error) {
	var installments []domain.Installment
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("installment_number ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

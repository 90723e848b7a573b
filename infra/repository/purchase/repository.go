package purchase

import (
	"context"
	"time"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	repo "github.com/amirasaad/ledgercore/pkg/repository/purchase"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type repository struct {
	db *gorm.DB
}

// New creates a purchase repository bound to db.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements purchase.Repository.
func (r *repository) Create(ctx context.Context, p *purchase.Purchase) error {
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(fromDomain(p)).Error
	})
}

// Get implements purchase.Repository. Always reads from the primary.
func (r *repository) Get(ctx context.Context, purchaseID string) (*purchase.Purchase, error) {
	var m Purchase
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(dbresolver.Write).
			Where("purchase_id = ?", purchaseID).
			Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// TransitionFromPending implements purchase.Repository.
func (r *repository) TransitionFromPending(ctx context.Context, p *purchase.Purchase) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Purchase{}).
		Where("purchase_id = ? AND status = ?", p.PurchaseID, string(purchase.StatusPending)).
		Updates(map[string]any{
			"status":         string(p.Status),
			"transaction_id": p.TransactionID,
			"error_message":  p.ErrorMessage,
			"updated_at":     now,
		})
	if res.Error != nil {
		return common.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	p.UpdatedAt = now
	return nil
}

func fromDomain(p *purchase.Purchase) *Purchase {
	return &Purchase{
		PurchaseID:     p.PurchaseID,
		UserID:         p.UserID,
		ProductID:      p.ProductID,
		RetailerID:     p.RetailerID,
		Quantity:       p.Quantity,
		UnitPrice:      p.UnitPrice,
		TotalAmount:    p.TotalAmount,
		Currency:       p.Currency.String(),
		BenefitApplied: p.BenefitApplied,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		ErrorMessage:   p.ErrorMessage,
		CorrelationID:  p.CorrelationID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toDomain(m *Purchase) *purchase.Purchase {
	return &purchase.Purchase{
		PurchaseID:     m.PurchaseID,
		UserID:         m.UserID,
		ProductID:      m.ProductID,
		RetailerID:     m.RetailerID,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		TotalAmount:    m.TotalAmount,
		Currency:       currency.Code(m.Currency),
		BenefitApplied: m.BenefitApplied,
		Status:         purchase.Status(m.Status),
		TransactionID:  m.TransactionID,
		ErrorMessage:   m.ErrorMessage,
		CorrelationID:  m.CorrelationID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

package product

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	repo "github.com/amirasaad/ledgercore/pkg/repository/product"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type repository struct {
	db *gorm.DB
}

// New creates a product repository bound to db.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Get implements product.Repository.
func (r *repository) Get(ctx context.Context, productID string, consistent bool) (*purchase.Product, error) {
	q := r.db.WithContext(ctx)
	if consistent {
		q = q.Clauses(dbresolver.Write)
	}
	var m Product
	if err := common.WrapError(func() error {
		return q.Where("product_id = ?", productID).Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// Create implements product.Repository.
func (r *repository) Create(ctx context.Context, p *purchase.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(fromDomain(p)).Error
	})
}

// ConditionalUpdate implements product.Repository.
func (r *repository) ConditionalUpdate(ctx context.Context, p *purchase.Product, expectedVersion int64) error {
	if p.Stock < 0 || p.Reserved < 0 {
		return errors.New("refusing to persist negative inventory")
	}
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("product_id = ? AND version = ?", p.ProductID, expectedVersion).
		Updates(map[string]any{
			"stock":      p.Stock,
			"reserved":   p.Reserved,
			"version":    expectedVersion + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return common.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	p.Version = expectedVersion + 1
	p.UpdatedAt = now
	return nil
}

// Query implements product.Repository.
func (r *repository) Query(ctx context.Context, q repo.Query) ([]*purchase.Product, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = repo.DefaultLimit
	}
	db := r.db.WithContext(ctx)
	if q.RetailerID != "" {
		db = db.Where("retailer_id = ?", q.RetailerID)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	var ms []Product
	if err := common.WrapError(func() error {
		return db.Order("name asc, product_id asc").Limit(limit).Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*purchase.Product, 0, len(ms))
	for i := range ms {
		out = append(out, toDomain(&ms[i]))
	}
	return out, nil
}

func fromDomain(p *purchase.Product) *Product {
	benefits := p.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	return &Product{
		ProductID:   p.ProductID,
		RetailerID:  p.RetailerID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Benefits:    datatypes.NewJSONSlice(benefits),
		Stock:       p.Stock,
		Reserved:    p.Reserved,
		Price:       p.Price,
		Currency:    p.Currency.String(),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toDomain(m *Product) *purchase.Product {
	return &purchase.Product{
		ProductID:   m.ProductID,
		RetailerID:  m.RetailerID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		Benefits:    []string(m.Benefits),
		Stock:       m.Stock,
		Reserved:    m.Reserved,
		Price:       m.Price,
		Currency:    currency.Code(m.Currency),
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

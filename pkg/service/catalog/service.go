// Package catalog serves product listings and the payment benefits each
// product offers.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/repository/product"
	"github.com/shopspring/decimal"
)

// ProductView is a catalog entry.
type ProductView struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    currency.Code   `json:"currency"`
	Category    string          `json:"category"`
	RetailerID  string          `json:"retailer_id"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url,omitempty"`
	Benefits    []string        `json:"benefits"`
}

// Listing is the result of a catalog query.
type Listing struct {
	Products []ProductView `json:"products"`
	Count    int           `json:"count"`
}

// Benefits lists the priced benefit options of one product.
type Benefits struct {
	ProductID      string                   `json:"product_id"`
	Price          decimal.Decimal          `json:"price"`
	Currency       currency.Code            `json:"currency"`
	BenefitOptions []purchase.BenefitOption `json:"benefit_options"`
}

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func NewService(deps config.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.Logger.With("service", "catalog")}
}

// ListProducts returns products filtered by retailer and category, at most
// q.Limit of them (product.DefaultLimit when unset).
func (s *Service) ListProducts(ctx context.Context, q product.Query) (*Listing, error) {
	if q.Limit < 0 {
		return nil, domain.NewValidationError("limit must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = product.DefaultLimit
	}
	q.RetailerID = strings.TrimSpace(q.RetailerID)
	q.Category = strings.TrimSpace(q.Category)

	var found []*purchase.Product
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		products, err := uow.ProductRepository()
		if err != nil {
			return err
		}
		found, err = products.Query(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Listing{Products: make([]ProductView, 0, len(found))}
	for _, p := range found {
		benefits := p.Benefits
		if benefits == nil {
			benefits = []string{}
		}
		out.Products = append(out.Products, ProductView{
			ProductID:   p.ProductID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Currency:    p.Currency,
			Category:    p.Category,
			RetailerID:  p.RetailerID,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
			Benefits:    benefits,
		})
	}
	out.Count = len(out.Products)
	s.logger.Debug("catalog queried", "retailer_id", q.RetailerID, "category", q.Category, "count", out.Count)
	return out, nil
}

// Benefits prices every benefit the product offers. Unknown benefit codes
// are skipped.
func (s *Service) Benefits(ctx context.Context, productID string) (*Benefits, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.NewValidationError("Invalid product_id")
	}
	var p *purchase.Product
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		products, err := uow.ProductRepository()
		if err != nil {
			return err
		}
		p, err = products.Get(ctx, productID, false)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewProductNotFoundError(productID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Benefits{
		ProductID:      p.ProductID,
		Price:          p.Price,
		Currency:       p.Currency,
		BenefitOptions: p.BenefitOptions(),
	}, nil
}

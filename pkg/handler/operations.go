// Package handler is the operation boundary: every ledger operation, whether
// it arrives over HTTP or the event bus, runs through Operations and comes
// back as a structured Response.
package handler

import (
	"context"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/dto"
	"github.com/amirasaad/ledgercore/pkg/mapper"
	"github.com/amirasaad/ledgercore/pkg/repository/product"
	"github.com/amirasaad/ledgercore/pkg/service/account"
	"github.com/amirasaad/ledgercore/pkg/service/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/service/catalog"
	"github.com/amirasaad/ledgercore/pkg/service/purchase"
	"github.com/amirasaad/ledgercore/pkg/service/transfer"
	"github.com/amirasaad/ledgercore/pkg/utils"
)

// Services groups the domain services behind the operations.
type Services struct {
	Transfers *transfer.Processor
	Aliases   *beneficiary.Service
	Accounts  *account.Service
	Purchases *purchase.Orchestrator
	Catalog   *catalog.Service
}

// NewServices builds every domain service from deps.
func NewServices(deps config.Deps) Services {
	return Services{
		Transfers: transfer.NewProcessor(deps),
		Aliases:   beneficiary.NewService(deps),
		Accounts:  account.NewService(deps),
		Purchases: purchase.NewOrchestrator(deps),
		Catalog:   catalog.NewService(deps),
	}
}

// Operations exposes the ledger operations.
type Operations struct {
	boundary *Boundary
	svc      Services
}

func NewOperations(deps config.Deps, svc Services) *Operations {
	return &Operations{boundary: NewBoundary(deps), svc: svc}
}

func (o *Operations) Transfer(ctx context.Context, req dto.TransferRequest) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "transfer",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		RequestID:     req.RequestID,
		Source:        events.SourceCoreBanking,
		SuccessEvent:  events.EventTypeTransferCompleted,
		FailureEvent:  events.EventTypeTransferFailed,
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Transfers.Transfer(ctx, transfer.Input{
				UserID:        req.UserID,
				FromAccount:   req.FromAccount,
				ToAccount:     req.ToAccount,
				Amount:        req.Amount,
				Currency:      req.Currency,
				Description:   req.Description,
				CorrelationID: utils.CorrelationID(ctx),
			})
		},
	})
}

func (o *Operations) ResolveAlias(ctx context.Context, req dto.ResolveAliasRequest) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "resolve_alias",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceCRM,
		SuccessEvent:  events.EventTypeAliasResolutionResponse,
		FailureEvent:  events.EventTypeAliasResolutionFailed,
		FailureExtra:  map[string]any{"alias": req.Alias},
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Aliases.Resolve(ctx, req.UserID, req.Alias)
		},
	})
}

// RequestPurchase runs phase one of the purchase saga. The saga publishes
// its own events.
func (o *Operations) RequestPurchase(ctx context.Context, req dto.PurchaseRequest) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "request_purchase",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		RequestID:     req.RequestID,
		Source:        events.SourceMarketplace,
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Purchases.RequestPurchase(ctx, purchase.RequestInput{
				UserID:        req.UserID,
				ProductID:     req.ProductID,
				Quantity:      req.Quantity,
				BenefitType:   req.BenefitType,
				CorrelationID: utils.CorrelationID(ctx),
			})
		},
	})
}

// CompletePurchase confirms a purchase. An unknown purchase yields a 404
// response; an already finished one succeeds with already_processed set.
func (o *Operations) CompletePurchase(ctx context.Context, req dto.CompletePurchaseRequest) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "complete_purchase",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceMarketplace,
		Exec: func(ctx context.Context) (any, error) {
			return found(o.svc.Purchases.CompletePurchase(ctx, purchase.CompleteInput{
				UserID:        req.UserID,
				PurchaseID:    req.PurchaseID,
				TransactionID: req.TransactionID,
				CorrelationID: utils.CorrelationID(ctx),
			}))
		},
	})
}

// FailPurchase compensates a purchase whose payment failed.
func (o *Operations) FailPurchase(ctx context.Context, req dto.FailPurchaseRequest) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "fail_purchase",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceMarketplace,
		Exec: func(ctx context.Context) (any, error) {
			return found(o.svc.Purchases.FailPurchase(ctx, purchase.FailInput{
				UserID:        req.UserID,
				PurchaseID:    req.PurchaseID,
				ErrorMessage:  req.ErrorMessage,
				CorrelationID: utils.CorrelationID(ctx),
			}))
		},
	})
}

func found(out *purchase.Outcome, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if !out.Found {
		return nil, domain.NewPurchaseNotFoundError(out.PurchaseID)
	}
	return out, nil
}

func (o *Operations) GetBalance(ctx context.Context, req dto.BalanceQuery) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "get_balance",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceCoreBanking,
		SuccessEvent:  events.EventTypeBalanceResponse,
		FailureEvent:  events.EventTypeBalanceQueryFailed,
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Accounts.GetBalance(ctx, req.UserID, req.AccountID)
		},
	})
}

func (o *Operations) ListTransactions(ctx context.Context, req dto.TransactionsQuery) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "list_transactions",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceCoreBanking,
		SuccessEvent:  events.EventTypeTransactionsResponse,
		FailureEvent:  events.EventTypeTransactionsQueryFailed,
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Accounts.ListTransactions(ctx, req.UserID, req.AccountID, req.Limit)
		},
	})
}

func (o *Operations) AddBeneficiary(ctx context.Context, req dto.AddBeneficiaryRequest) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "add_beneficiary",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		RequestID:     req.RequestID,
		Source:        events.SourceCRM,
		SuccessEvent:  events.EventTypeBeneficiaryAdded,
		FailureEvent:  events.EventTypeAddBeneficiaryFailed,
		Exec: func(ctx context.Context) (any, error) {
			b, err := o.svc.Aliases.Add(ctx, beneficiary.AddInput{
				UserID:       req.UserID,
				Name:         req.Name,
				Alias:        req.Alias,
				AccountID:    req.AccountID,
				Relationship: req.Relationship,
			})
			if err != nil {
				return nil, err
			}
			return mapper.MapBeneficiaryToRead(b), nil
		},
	})
}

func (o *Operations) ListBeneficiaries(ctx context.Context, req dto.BeneficiariesQuery) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "list_beneficiaries",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceCRM,
		SuccessEvent:  events.EventTypeBeneficiariesResponse,
		FailureEvent:  events.EventTypeBeneficiariesQueryFailed,
		Exec: func(ctx context.Context) (any, error) {
			bs, err := o.svc.Aliases.List(ctx, req.UserID)
			if err != nil {
				return nil, err
			}
			return mapper.MapBeneficiariesToList(bs), nil
		},
	})
}

func (o *Operations) ListProducts(ctx context.Context, req dto.CatalogQuery) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "list_products",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceMarketplace,
		SuccessEvent:  events.EventTypeCatalogResponse,
		FailureEvent:  events.EventTypeCatalogQueryFailed,
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Catalog.ListProducts(ctx, product.Query{
				RetailerID: req.RetailerID,
				Category:   req.Category,
				Limit:      req.Limit,
			})
		},
	})
}

func (o *Operations) GetBenefits(ctx context.Context, req dto.BenefitsQuery) Response {
	return o.boundary.Run(ctx, Call{
		Operation:     "get_benefits",
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Source:        events.SourceMarketplace,
		SuccessEvent:  events.EventTypeBenefitsResponse,
		FailureEvent:  events.EventTypeBenefitsQueryFailed,
		Exec: func(ctx context.Context) (any, error) {
			return o.svc.Catalog.Benefits(ctx, req.ProductID)
		},
	})
}

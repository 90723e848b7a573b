// Package beneficiary resolves free-text beneficiary references to accounts
// and manages a user's saved beneficiaries.
package beneficiary

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/utils"
)

// MatchType tells how an alias was resolved.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Resolution is the beneficiary an alias resolved to.
type Resolution struct {
	BeneficiaryID string                 `json:"beneficiary_id"`
	Name          string                 `json:"name"`
	Alias         string                 `json:"alias"`
	AccountID     string                 `json:"account_id"`
	Relationship  string                 `json:"relationship"`
	MatchType     MatchType              `json:"match_type"`
	MatchedOn     beneficiary.MatchField `json:"matched_on,omitempty"`
}

// AddInput describes a new beneficiary.
type AddInput struct {
	UserID       string
	Name         string
	Alias        string
	AccountID    string
	Relationship string
}

// Service implements alias resolution and beneficiary management.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		logger: deps.Logger.With("service", "beneficiary"),
	}
}

// Resolve maps alias to one of the user's beneficiaries. An exact hit on
// the normalized alias index wins. Otherwise the user's beneficiaries are
// scanned in creation order and the first fuzzy match is returned.
func (s *Service) Resolve(ctx context.Context, userID, alias string) (*Resolution, error) {
	if err := utils.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	key := beneficiary.NormalizeAlias(alias)
	if key == "" {
		return nil, domain.NewValidationError("alias is required")
	}
	log := s.logger.With("user_id", userID, "alias", key)

	var res *Resolution
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BeneficiaryRepository()
		if err != nil {
			return err
		}

		b, err := repo.FindByAlias(ctx, userID, key)
		if err == nil {
			res = toResolution(b, MatchExact, "")
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		candidates, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if field, ok := c.FuzzyMatch(key); ok {
				res = toResolution(c, MatchFuzzy, field)
				return nil
			}
		}
		return domain.NewAliasNotFoundError(alias)
	})
	if err != nil {
		return nil, err
	}
	log.Info("✅ alias resolved", "match_type", res.MatchType, "beneficiary_id", res.BeneficiaryID)
	return res, nil
}

// Add stores a beneficiary. The alias is normalized the same way Resolve
// normalizes its input, and must be unique per user.
func (s *Service) Add(ctx context.Context, in AddInput) (*beneficiary.Beneficiary, error) {
	if err := utils.ValidateID("user_id", in.UserID); err != nil {
		return nil, err
	}
	b, err := beneficiary.New(in.UserID, in.Name, in.Alias, in.AccountID, in.Relationship)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BeneficiaryRepository()
		if err != nil {
			return err
		}
		if _, err := repo.FindByAlias(ctx, b.UserID, b.AliasLower); err == nil {
			return domain.NewAliasAlreadyExistsError(in.Alias)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := repo.Create(ctx, b); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.NewAliasAlreadyExistsError(in.Alias)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("✅ beneficiary added", "user_id", b.UserID, "beneficiary_id", b.BeneficiaryID)
	return b, nil
}

// List returns the user's beneficiaries in creation order.
func (s *Service) List(ctx context.Context, userID string) ([]*beneficiary.Beneficiary, error) {
	if err := utils.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	var out []*beneficiary.Beneficiary
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BeneficiaryRepository()
		if err != nil {
			return err
		}
		out, err = repo.ListByUser(ctx, userID)
		return err
	})
	return out, err
}

func toResolution(b *beneficiary.Beneficiary, match MatchType, field beneficiary.MatchField) *Resolution {
	return &Resolution{
		BeneficiaryID: b.BeneficiaryID,
		Name:          b.Name,
		Alias:         b.Alias,
		AccountID:     b.AccountID,
		Relationship:  b.Relationship,
		MatchType:     match,
		MatchedOn:     field,
	}
}

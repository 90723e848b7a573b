package idempotency

import (
	"context"

	"github.com/amirasaad/ledgercore/infra/repository/common"
	repo "github.com/amirasaad/ledgercore/pkg/repository/idempotency"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

type repository struct {
	db *gorm.DB
}

// New creates an idempotency repository bound to db.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Get implements idempotency.Repository. Always reads from the primary.
func (r *repository) Get(ctx context.Context, requestID string) (*repo.Record, error) {
	var m Record
	if err := common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(dbresolver.Write).
			Where("request_id = ?", requestID).
			Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return &repo.Record{
		RequestID:   m.RequestID,
		Status:      m.Status,
		Result:      []byte(m.Result),
		ProcessedAt: m.ProcessedAt,
		ExpiresAt:   m.ExpiresAt,
	}, nil
}

// Create implements idempotency.Repository. The primary key turns a
// concurrent second insert into domain.ErrAlreadyExists.
func (r *repository) Create(ctx context.Context, rec *repo.Record) error {
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).Create(toModel(rec)).Error
	})
}

// Put implements idempotency.Repository.
func (r *repository) Put(ctx context.Context, rec *repo.Record) error {
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "request_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "result", "processed_at", "expires_at"}),
			}).
			Create(toModel(rec)).Error
	})
}

// Delete implements idempotency.Repository.
func (r *repository) Delete(ctx context.Context, requestID string) error {
	return common.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("request_id = ?", requestID).
			Delete(&Record{}).Error
	})
}

func toModel(rec *repo.Record) *Record {
	status := rec.Status
	if status == "" {
		status = repo.StatusCompleted
	}
	result := rec.Result
	if len(result) == 0 {
		result = []byte("null")
	}
	return &Record{
		RequestID:   rec.RequestID,
		Status:      status,
		Result:      datatypes.JSON(result),
		ProcessedAt: rec.ProcessedAt,
		ExpiresAt:   rec.ExpiresAt,
	}
}

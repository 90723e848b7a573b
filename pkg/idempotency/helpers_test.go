package idempotency_test

import (
	"context"
	"errors"

	"github.com/amirasaad/ledgercore/pkg/repository/idempotency"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*idempotency.Record, error) {
	return nil, errors.New("store down")
}

func (failingStore) Claim(context.Context, *idempotency.Record) error {
	return errors.New("store down")
}

func (failingStore) Complete(context.Context, *idempotency.Record) error {
	return errors.New("store down")
}

func (failingStore) Release(context.Context, string) error {
	return errors.New("store down")
}

package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func TestWithUTC(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "adds the time zone",
			uri:      "postgres://pdfa@localhost/pdfa?sslmode=disable",
			expected: "postgres://pdfa@localhost/pdfa?sslmode=disable&timezone=UTC",
		},
		{
			name:     "keeps an explicit time zone",
			uri:      "postgres://pdfa@localhost/pdfa?timezone=America%2FPhoenix",
			expected: "postgres://pdfa@localhost/pdfa?timezone=America%2FPhoenix",
		},
		{
			name:     "leaves key value connection strings alone",
			uri:      "host=localhost dbname=pdfa",
			expected: "host=localhost dbname=pdfa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if actual := withUTC(tt.uri); actual != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	if translate(nil, "nothing") != nil {
		t.Fatalf("expected nil for a nil error")
	}

	err := translate(gorm.ErrRecordNotFound, "unable to find the thing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err = translate(&pq.Error{Code: uniqueViolation, Constraint: PendingRequestIndex}, "unable to save")
	if !errors.Is(err, model.ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}

	err = translate(&pq.Error{Code: uniqueViolation, Constraint: "some_other_index"}, "unable to save")
	if errors.Is(err, model.ErrDuplicatePending) {
		t.Fatalf("unexpected ErrDuplicatePending for an unrelated constraint")
	}

	err = translate(fmt.Errorf("query: %w", &pq.Error{Code: invalidTextRepresentation}), "unable to look up")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a malformed identifier, got %v", err)
	}
}

func TestIsDomainError(t *testing.T) {
	if !isDomainError(&model.QuotaExceededError{Requested: 1}) {
		t.Fatalf("expected quota errors to be passed through")
	}
	if !isDomainError(model.NewValidationError("count", "must be positive")) {
		t.Fatalf("expected validation errors to be passed through")
	}
	if isDomainError(errors.New("connection reset")) {
		t.Fatalf("unexpected domain error")
	}
}

func TestTxFrom(t *testing.T) {
	ctx := context.Background()
	if _, ok := txFrom(ctx); ok {
		t.Fatalf("a plain context must not carry a transaction")
	}

	tx := &gorm.DB{}
	got, ok := txFrom(withTx(ctx, tx))
	if !ok || got != tx {
		t.Fatalf("expected the carried transaction to be returned")
	}

	if _, ok = txFrom(withTx(ctx, nil)); ok {
		t.Fatalf("a nil transaction must be ignored")
	}
}

// Package store provides the document store the engine persists to.
//
// Documents are JSON-encoded values addressed by (collection, id). Every
// mutation that must be serializable goes through RunTransaction: reads are
// tracked with the version they observed and commit fails with ErrConflict
// if any of them moved underneath the transaction.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the document does not exist.
	ErrNotFound = errors.New("store: document not found")
	// ErrConflict is returned by RunTransaction when a concurrent writer
	// changed a document this transaction read or created.
	ErrConflict = errors.New("store: transaction conflict")
	// ErrUnavailable wraps connectivity failures of the backing database.
	ErrUnavailable = errors.New("store: unavailable")
)

// Collections used by the engine.
const (
	Accounts            = "accounts"
	CreditTransactions  = "credit_transactions"
	LedgerIndex         = "ledger_index"
	Unlocks             = "unlocks"
	Applications        = "applications"
	TeacherApplications = "teacher_applications"
)

// Reader reads a single document into dest.
type Reader interface {
	Get(ctx context.Context, collection, id string, dest any) error
}

// Tx is the view a transaction function gets. Writes are buffered and
// visible to later reads in the same transaction.
type Tx interface {
	Reader
	Set(collection, id string, doc any) error
}

// Store is the persistence boundary of the engine.
type Store interface {
	Reader
	Set(ctx context.Context, collection, id string, doc any) error
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// IsTransient reports whether err is worth retrying the whole transaction for.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}

type docKey struct {
	collection string
	id         string
}

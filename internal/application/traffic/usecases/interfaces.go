package usecases

import "context"

// TransactionRunner executes a function inside a storage transaction.
// Satisfied by db.TransactionManager.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OperatorAlerter pages the operator on fatal failures. Satisfied by
// notification.CompositeAlerter.
type OperatorAlerter interface {
	Alert(ctx context.Context, message string)
}

// TrialLimitFlags tracks per-day "already limited" flags for trial users.
// Satisfied by cache.TrialLimitStore.
type TrialLimitFlags interface {
	IsLimited(ctx context.Context, userID uint, day string) bool
	MarkLimited(ctx context.Context, userID uint, day string) error
}

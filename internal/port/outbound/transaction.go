package outbound

import "context"

// TransactionManager composes repository writes into one atomic unit. The
// function receives a transaction-scoped context; repository calls made with
// it commit or roll back together.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

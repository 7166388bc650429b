package checkouts

import (
	"context"
	"time"

	"library-backend/internal/platform/paging"
)

// Repository is the persistence the ledger needs. Every read excludes
// soft-deleted rows unless stated otherwise.
type Repository interface {
	// InTx runs fn in one transaction. Any error from fn rolls back every write.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Get(ctx context.Context, id int64) (*CheckoutDetail, error)
	List(ctx context.Context, f Filter, now time.Time, p paging.Page) ([]CheckoutDetail, int64, error)
	// ListOverdue: open and due before now, soonest due first.
	ListOverdue(ctx context.Context, now time.Time, p paging.Page) ([]CheckoutDetail, int64, error)
	AllOverdue(ctx context.Context, now time.Time) ([]CheckoutDetail, error)

	// SoftDeleteBook / SoftDeleteUser set deleted_at in a single statement guarded
	// by "no open checkout references the row".
	SoftDeleteBook(ctx context.Context, id int64, at time.Time) (DeleteResult, error)
	SoftDeleteUser(ctx context.Context, id int64, at time.Time) (DeleteResult, error)
}

// Tx is the transactional view. Lock* take row locks held until the
// transaction ends and return nil when the row is missing or soft-deleted.
type Tx interface {
	LockBook(ctx context.Context, id int64) (*BookRow, error)
	LockUser(ctx context.Context, id int64) (*UserRow, error)
	LockCheckout(ctx context.Context, id int64) (*Checkout, error)
	CountOpenByUser(ctx context.Context, userID int64) (int, error)
	InsertCheckout(ctx context.Context, c *Checkout) error
	// TransitionBook moves the book from one status to another; false when the
	// book was not in the from status.
	TransitionBook(ctx context.Context, bookID int64, from, to string) (bool, error)
	// CloseCheckout marks an open checkout returned; false when it was not open.
	CloseCheckout(ctx context.Context, id int64, at time.Time) (bool, error)
}

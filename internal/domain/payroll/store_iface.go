package payroll

import "context"

// Ledger records posted payroll results. Posting the same key again
// replaces the earlier result.
type Ledger interface {
	Put(ctx context.Context, res Result) error
	Get(ctx context.Context, key Key) (Result, error)
	ListByEmployee(ctx context.Context, employeeID int) ([]Result, error)
	List(ctx context.Context) ([]Result, error)
}

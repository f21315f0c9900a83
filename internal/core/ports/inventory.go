package ports

import "context"

// StockCredit is one pending +1 on a movie's stock caused by a returned rental.
type StockCredit struct {
	JobID    string
	RentalID string
	MovieID  string
	Attempt  int
}

// InventoryReconciler keeps movie stock consistent with rental returns.
type InventoryReconciler interface {
	IncrementStock(ctx context.Context, credit StockCredit) error
}

// StockCreditQueue accepts credits whose first application failed.
type StockCreditQueue interface {
	Enqueue(credit StockCredit)
}

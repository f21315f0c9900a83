package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLedgerTTL = 7 * 24 * time.Hour

// StockCreditLedger records which returned rentals already credited their
// movie's stock, so a retried credit is applied at most once.
// Key format: stock-credit:<rental_id>
type StockCreditLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStockCreditLedger wraps client. A non-positive ttl uses a one week default.
func NewStockCreditLedger(client *redis.Client, ttl time.Duration) *StockCreditLedger {
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &StockCreditLedger{client: client, ttl: ttl}
}

// Claim marks rentalID as credited. It returns false when another caller
// claimed it first.
func (l *StockCreditLedger) Claim(ctx context.Context, rentalID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKey(rentalID), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ledger claim: %w", err)
	}
	return ok, nil
}

// Release forgets a claim whose stock update did not land.
func (l *StockCreditLedger) Release(ctx context.Context, rentalID string) error {
	if err := l.client.Del(ctx, ledgerKey(rentalID)).Err(); err != nil {
		return fmt.Errorf("ledger release: %w", err)
	}
	return nil
}

func ledgerKey(rentalID string) string {
	return "stock-credit:" + rentalID
}

package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidly/rental-system/internal/api/metrics"
	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
)

const (
	defaultWorkers     = 4
	defaultMaxAttempts = 5
	defaultBackoff     = 500 * time.Millisecond
	maxBackoff         = time.Minute
	channelBuffer      = 256
)

// Options tunes the dispatcher. Zero values fall back to defaults.
type Options struct {
	Workers     int
	MaxAttempts int
	Backoff     time.Duration
}

// Dispatcher retries stock credits that failed during a return. Credits are
// routed to a fixed set of workers by hashing the movie id, so credits for
// one movie are applied in order by a single goroutine.
type Dispatcher struct {
	workers     []chan ports.StockCredit
	reconciler  ports.InventoryReconciler
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

var _ ports.StockCreditQueue = (*Dispatcher)(nil)

func NewDispatcher(opts Options, reconciler ports.InventoryReconciler, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	d := &Dispatcher{
		workers:     make([]chan ports.StockCredit, opts.Workers),
		reconciler:  reconciler,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.StockCredit, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a credit to the worker responsible for its movie. It never
// blocks the caller: when the worker's buffer is full the credit is dropped
// and logged so an operator can reconcile it by hand.
func (d *Dispatcher) Enqueue(credit ports.StockCredit) {
	idx := d.shardIndex(credit.MovieID)
	select {
	case d.workers[idx] <- credit:
		metrics.StockCreditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.StockCreditsTotal.WithLabelValues("queue_full").Inc()
		d.log.Error().
			Str("rental_id", credit.RentalID).
			Str("movie_id", credit.MovieID).
			Int("worker_id", idx).
			Msg("stock credit queue full, credit dropped")
	}
}

// shardIndex maps a movie id deterministically to a worker index.
func (d *Dispatcher) shardIndex(movieID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(movieID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.StockCredit) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.abandonPending(id, ch, nil)
			return
		case credit, ok := <-ch:
			if !ok {
				return
			}
			metrics.StockCreditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if !d.sleep(ctx, credit.Attempt) {
				d.abandonPending(id, ch, &credit)
				return
			}
			d.apply(ctx, id, credit)
		}
	}
}

// abandonPending drains a stopping worker's buffer and logs every credit that
// will not be applied, so the stock can be reconciled by hand.
func (d *Dispatcher) abandonPending(id int, ch <-chan ports.StockCredit, inflight *ports.StockCredit) {
	var rentalIDs []string
	if inflight != nil {
		rentalIDs = append(rentalIDs, inflight.RentalID)
	}
	// Each channel has a single reader, so a non-zero len never blocks.
	for len(ch) > 0 {
		credit := <-ch
		rentalIDs = append(rentalIDs, credit.RentalID)
	}
	if len(rentalIDs) == 0 {
		return
	}

	metrics.StockCreditsTotal.WithLabelValues("dropped").Add(float64(len(rentalIDs)))
	metrics.StockCreditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
	d.log.Error().
		Int("worker_id", id).
		Int("pending", len(rentalIDs)).
		Strs("rental_ids", rentalIDs).
		Msg("dispatcher stopped with pending stock credits")
}

// delay doubles the base backoff for every attempt already made.
func (d *Dispatcher) delay(attempt int) time.Duration {
	wait := d.backoff
	for i := 1; i < attempt && wait < maxBackoff; i++ {
		wait *= 2
	}
	return min(wait, maxBackoff)
}

// sleep waits out the backoff before the next attempt. It reports false if
// ctx ended first.
func (d *Dispatcher) sleep(ctx context.Context, attempt int) bool {
	t := time.NewTimer(d.delay(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (d *Dispatcher) apply(ctx context.Context, workerID int, credit ports.StockCredit) {
	credit.Attempt++
	err := d.reconciler.IncrementStock(ctx, credit)
	if err == nil {
		metrics.StockCreditsTotal.WithLabelValues("applied").Inc()
		d.log.Info().
			Str("job_id", credit.JobID).
			Str("rental_id", credit.RentalID).
			Str("movie_id", credit.MovieID).
			Int("attempt", credit.Attempt).
			Msg("stock credit applied on retry")
		return
	}

	logEvt := d.log.Error().Err(err).
		Str("job_id", credit.JobID).
		Str("rental_id", credit.RentalID).
		Str("movie_id", credit.MovieID).
		Int("attempt", credit.Attempt).
		Int("worker_id", workerID)

	if errors.Is(err, domain.ErrMovieNotFound) || credit.Attempt >= d.maxAttempts {
		metrics.StockCreditsTotal.WithLabelValues("dropped").Inc()
		logEvt.Msg("stock credit abandoned")
		return
	}

	metrics.StockCreditsTotal.WithLabelValues("retried").Inc()
	logEvt.Msg("stock credit failed, retrying")
	d.Enqueue(credit)
}

/*
scheduler.go - Automated settlement scheduler

PURPOSE:
	Periodically recomputes settlement plans for groups whose expenses or
	payments changed since their last run, so the recommended transfers on
	display never go stale.

DESIGN:
	- Runs a background goroutine with configurable check interval
	- Sweeps groups in parallel with a bounded worker count
	- Skips groups whose expense and paid counts match the latest run,
	  and groups that have no expenses to plan for yet
	- Each settle persists a run record for audit and UI display

CONFIGURATION:
	- CheckInterval: How often to check (default: 1 hour)
	- MaxParallel: Worker cap for the sweep (default: 4)
	- Enabled: Whether scheduler is active (default: true)

USAGE:
	scheduler := NewSettlementScheduler(handler.Ledger)
	scheduler.Start()
	// ... later
	scheduler.Stop()

SEE ALSO:
	- handlers.go: SettleGroup endpoint (manual settlement)
	- groups/ledger.go: Settle and Unchanged
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tejaperfect/expensiver1-sub001/groups"
)

// SettlementScheduler keeps every group's settlement plan current.
type SettlementScheduler struct {
	Ledger        *groups.GroupLedger
	CheckInterval time.Duration
	MaxParallel   int
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSettlementScheduler creates a new scheduler.
func NewSettlementScheduler(ledger *groups.GroupLedger) *SettlementScheduler {
	return &SettlementScheduler{
		Ledger:        ledger,
		CheckInterval: 1 * time.Hour,
		MaxParallel:   4,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SettlementScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler.
func (ss *SettlementScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ss *SettlementScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.checkAndSettle()

	for {
		select {
		case <-ss.ticker.C:
			ss.checkAndSettle()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SettlementScheduler) checkAndSettle() {
	ctx := context.Background()

	log.Printf("[Scheduler] Checking groups for settlement at %v", time.Now())

	allGroups, err := ss.Ledger.Groups(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing groups: %v", err)
		return
	}

	var settledCount, skippedCount atomic.Int64

	// Groups settle independently, so sweep them in parallel with a cap.
	eg := new(errgroup.Group)
	eg.SetLimit(ss.MaxParallel)

	for _, g := range allGroups {
		g := g // per-iteration copy; the module was written with go1.22 loop semantics
		eg.Go(func() error {
			run, _, err := ss.Ledger.LatestRun(ctx, g.ID)
			switch {
			case err == nil:
				unchanged, err := ss.Ledger.Unchanged(ctx, g.ID, run)
				if err != nil {
					log.Printf("[Scheduler] Error checking group %s: %v", g.ID, err)
					return nil
				}
				if unchanged {
					skippedCount.Add(1)
					return nil
				}
			case errors.Is(err, groups.ErrSettlementNotFound):
				// Never settled. A group with no expenses has nothing to
				// plan yet, so don't write an empty run for it.
				expenses, err := ss.Ledger.Expenses(ctx, g.ID, groups.ExpenseFilter{})
				if err != nil {
					log.Printf("[Scheduler] Error loading expenses for %s: %v", g.ID, err)
					return nil
				}
				if len(expenses) == 0 {
					skippedCount.Add(1)
					return nil
				}
			default:
				log.Printf("[Scheduler] Error reading latest run for %s: %v", g.ID, err)
				return nil
			}

			if _, _, err := ss.Ledger.Settle(ctx, g.ID); err != nil {
				log.Printf("[Scheduler] Error settling group %s: %v", g.ID, err)
				return nil
			}
			settledCount.Add(1)
			return nil
		})
	}

	// Workers log their own failures and return nil, so one bad group
	// never aborts the sweep.
	_ = eg.Wait()

	if settledCount.Load() > 0 || skippedCount.Load() > 0 {
		log.Printf("[Scheduler] Completed: %d settled, %d skipped (unchanged)",
			settledCount.Load(), skippedCount.Load())
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (ss *SettlementScheduler) RunNow() {
	ss.checkAndSettle()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ss *SettlementScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ss.CheckInterval)
}

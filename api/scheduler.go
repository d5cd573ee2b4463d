/*
scheduler.go - Periodic eligibility scan

PURPOSE:
  Recomputes the roster forecast on a fixed interval and logs members who
  reached their eligibility date since the previous scan, plus those whose
  date falls inside the notice window. Personnel staff use the log lines to
  open promotion processes on time.

DESIGN:
  - Background goroutine with a configurable check interval
  - Runs once immediately on Start
  - Remembers who was already eligible; only transitions are logged
  - Scans at an explicit date are read-only: every member eligible on
    that date is listed and the remembered set is left alone
  - Members skipped by the batch are logged by the roster service

CONFIGURATION:
  - CheckInterval: How often to scan (default: 24 hours)
  - NoticeDays:    Upcoming window (default: 30 days)
  - Enabled:       Whether the scheduler runs (default: true)

USAGE:
  scheduler := NewEligibilityScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - roster/service.go: Forecasts
  - cmd/promotions/serve.go: started with the HTTP server
*/
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/roster"
)

// ScanResult is the outcome of one eligibility scan.
type ScanResult struct {
	AsOf generic.Date `json:"as_of"`
	// NewlyEligible reached their date since the previous clock scan. A scan
	// at an explicit date lists every member eligible on that date.
	NewlyEligible []forecast.Forecast `json:"newly_eligible"`
	// Upcoming become eligible within the notice window.
	Upcoming []forecast.Forecast `json:"upcoming"`
	Skipped  int                 `json:"skipped"`
}

// EligibilityScheduler runs the periodic scan.
type EligibilityScheduler struct {
	Service       *roster.Service
	Logger        *zap.Logger
	CheckInterval time.Duration
	NoticeDays    int
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup

	// scanMu serializes clock scans from compute to commit.
	scanMu   sync.Mutex
	mu       sync.Mutex
	eligible map[generic.MemberID]bool
	last     *ScanResult
}

// NewEligibilityScheduler creates a new scheduler.
func NewEligibilityScheduler(svc *roster.Service, logger *zap.Logger) *EligibilityScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityScheduler{
		Service:       svc,
		Logger:        logger,
		CheckInterval: 24 * time.Hour,
		NoticeDays:    30,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (es *EligibilityScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		es.Logger.Info("eligibility scheduler disabled")
		return
	}
	if es.ticker != nil {
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.stop = make(chan struct{})
	es.wg.Add(1)
	go es.run(es.ticker.C, es.stop)

	es.Logger.Info("eligibility scheduler started", zap.Duration("interval", es.CheckInterval))
}

// Stop stops the scheduler and waits for a running scan.
func (es *EligibilityScheduler) Stop() {
	es.mu.Lock()
	ticker, stop := es.ticker, es.stop
	es.ticker = nil
	es.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	es.wg.Wait()
	es.Logger.Info("eligibility scheduler stopped")
}

func (es *EligibilityScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer es.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	es.scan(ctx, time.Time{})

	for {
		select {
		case <-tick:
			es.scan(ctx, time.Time{})
		case <-ctx.Done():
			return
		}
	}
}

// RunNow performs one scan at now. Only a zero now (the service clock)
// updates the remembered set and LastResult.
func (es *EligibilityScheduler) RunNow(ctx context.Context, now time.Time) (ScanResult, error) {
	return es.scan(ctx, now)
}

// LastResult returns the most recent clock scan, if any ran.
func (es *EligibilityScheduler) LastResult() (ScanResult, bool) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.last == nil {
		return ScanResult{}, false
	}
	return *es.last, true
}

func (es *EligibilityScheduler) scan(ctx context.Context, now time.Time) (ScanResult, error) {
	tracked := now.IsZero()
	if tracked {
		es.scanMu.Lock()
		defer es.scanMu.Unlock()
	}

	batch, err := es.Service.Forecasts(ctx, "", now)
	if err != nil {
		es.Logger.Error("eligibility scan failed", zap.Error(err))
		return ScanResult{}, err
	}

	es.mu.Lock()
	var seen map[generic.MemberID]bool
	if tracked {
		seen = es.eligible
	}
	res := ScanResult{AsOf: batch.AsOf, Skipped: len(batch.Skipped)}
	current := make(map[generic.MemberID]bool, len(batch.Forecasts))
	for _, f := range batch.Forecasts {
		if f.NextRank == nil {
			continue
		}
		if f.Eligible() {
			current[f.MemberID] = true
			if !seen[f.MemberID] {
				res.NewlyEligible = append(res.NewlyEligible, f)
			}
			continue
		}
		if f.DaysRemaining <= es.NoticeDays {
			res.Upcoming = append(res.Upcoming, f)
		}
	}
	if tracked {
		es.eligible = current
		es.last = &res
	}
	es.mu.Unlock()

	if !tracked {
		es.Logger.Debug("eligibility scan at date",
			zap.Stringer("as_of", res.AsOf),
			zap.Int("eligible", len(res.NewlyEligible)),
			zap.Int("upcoming", len(res.Upcoming)))
		return res, nil
	}

	for _, f := range res.NewlyEligible {
		es.Logger.Info("member eligible for promotion",
			zap.String("member_id", string(f.MemberID)),
			zap.Stringer("rank", f.CurrentRank),
			zap.Stringer("next_rank", f.NextRank),
			zap.Stringer("eligible_on", f.NextEligibleDate))
	}
	es.Logger.Info("eligibility scan completed",
		zap.Stringer("as_of", res.AsOf),
		zap.Int("newly_eligible", len(res.NewlyEligible)),
		zap.Int("upcoming", len(res.Upcoming)),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// =============================================================================
// HANDLERS
// =============================================================================

func (h *Handler) scheduler() *EligibilityScheduler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Scheduler == nil {
		h.Scheduler = NewEligibilityScheduler(h.Service, h.Logger)
	}
	return h.Scheduler
}

// GetEligibility returns the last scan, running one if none has.
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	es := h.scheduler()
	if res, ok := es.LastResult(); ok {
		writeJSON(w, http.StatusOK, res)
		return
	}
	h.RunEligibilityScan(w, r)
}

// RunEligibilityScan scans now, or at ?as_of=.
func (h *Handler) RunEligibilityScan(w http.ResponseWriter, r *http.Request) {
	now, ok := asOf(w, r)
	if !ok {
		return
	}
	res, err := h.scheduler().RunNow(r.Context(), now)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

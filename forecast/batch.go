package forecast

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbm/promotion-engine/generic"
)

// RecordError ties a per-member failure to the member so a report can show
// it next to the rows that did compute.
type RecordError struct {
	MemberID generic.MemberID
	Err      error
}

func (e RecordError) Error() string { return fmt.Sprintf("member %s: %v", e.MemberID, e.Err) }
func (e RecordError) Unwrap() error { return e.Err }

// BatchResult holds every computable forecast plus the skipped members,
// both in input order.
type BatchResult struct {
	AsOf      generic.Date
	Forecasts []Forecast
	Skipped   []RecordError
}

// CalculateAll forecasts a roster against a single reference instant.
// Members are independent, so they are computed concurrently with at most
// workers goroutines (GOMAXPROCS when workers <= 0). A member that fails is
// skipped and reported; only context cancellation fails the batch.
func (c *Calculator) CalculateAll(ctx context.Context, inputs []Input, now time.Time, workers int) (BatchResult, error) {
	now = c.now(now)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	forecasts := make([]Forecast, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range inputs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			forecasts[i], errs[i] = c.Calculate(inputs[i], now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{AsOf: generic.DateOf(now), Forecasts: make([]Forecast, 0, len(inputs))}
	for i, err := range errs {
		if err != nil {
			result.Skipped = append(result.Skipped, RecordError{MemberID: inputs[i].MemberID, Err: err})
			continue
		}
		result.Forecasts = append(result.Forecasts, forecasts[i])
	}
	return result, nil
}

// Package executor applies update plans to the ledger one at a time with a
// fixed minimum spacing between writes.
package executor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
	"github.com/brian-reel/airtable-heroku/pkg/metrics"
)

const defaultDelay = 200 * time.Millisecond

// Writer is the write half of a ledger store.
type Writer interface {
	Update(ctx context.Context, recordID string, changes []model.Change) (model.LedgerRecord, error)
	Create(ctx context.Context, changes []model.Change) (model.LedgerRecord, error)
}

// Failure is a plan the ledger rejected.
type Failure struct {
	Plan model.UpdatePlan
	Err  error
}

// Result lists the outcome of every plan handed to Apply.
type Result struct {
	Succeeded []string // record ids, including ids assigned to created rows
	Created   int
	Failed    []Failure
}

// Executor writes plans sequentially. A failed write is recorded and the
// next plan proceeds; nothing is retried within a pass.
type Executor struct {
	writer Writer
	delay  time.Duration
	job    string
	logger logger.Logger
}

// New creates an executor over w.
func New(w Writer, opts ...Option) *Executor {
	e := &Executor{
		writer: w,
		delay:  defaultDelay,
		job:    "default",
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply submits plans in order. If ctx ends, the remaining plans are
// recorded as failed with the context error.
func (e *Executor) Apply(ctx context.Context, plans []model.UpdatePlan) Result {
	var res Result
	limiter := rate.NewLimiter(rate.Inf, 1)
	if e.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(e.delay), 1)
	}

	for i, plan := range plans {
		if err := limiter.Wait(ctx); err != nil {
			for _, rest := range plans[i:] {
				res.Failed = append(res.Failed, Failure{Plan: rest, Err: fmt.Errorf("not attempted: %w", err)})
			}
			return res
		}

		id, err := e.apply(ctx, plan)
		if err != nil {
			e.logger.Error(ctx, "ledger write failed",
				logger.String("record_id", plan.RecordID),
				logger.String("source_id", plan.SourceID),
				logger.Any("fields", plan.Attempted()),
				logger.Error(err))
			res.Failed = append(res.Failed, Failure{Plan: plan, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
		if plan.IsCreate() {
			res.Created++
		}
	}
	return res
}

func (e *Executor) apply(ctx context.Context, plan model.UpdatePlan) (string, error) {
	op := "update"
	if plan.IsCreate() {
		op = "create"
	}
	start := time.Now()
	var (
		rec model.LedgerRecord
		err error
	)
	if plan.IsCreate() {
		rec, err = e.writer.Create(ctx, plan.Changes)
	} else {
		rec, err = e.writer.Update(ctx, plan.RecordID, plan.Changes)
	}
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordWrite(e.job, op, "failed", latency)
		return "", err
	}
	metrics.RecordWrite(e.job, op, "succeeded", latency)

	e.logger.Debug(ctx, "ledger write applied",
		logger.String("op", op),
		logger.String("record_id", rec.ID),
		logger.Int("fields", len(plan.Changes)))
	if rec.ID == "" {
		rec.ID = plan.RecordID
	}
	return rec.ID, nil
}

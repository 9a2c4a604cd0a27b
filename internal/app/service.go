// Package service runs reconciliation passes between the system of record
// and the ledger and keeps the last report of every sync job.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brian-reel/airtable-heroku/internal/domain/diff"
	"github.com/brian-reel/airtable-heroku/internal/domain/types"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
	"github.com/brian-reel/airtable-heroku/pkg/metrics"
)

const defaultWriteDelay = 200 * time.Millisecond

// Service owns the job roster. At most one pass runs at a time.
type Service struct {
	mu sync.RWMutex

	jobs   []*Job
	byName map[string]*Job

	// Configuration
	reportDir  string
	writeDelay time.Duration

	// State
	started      bool
	running      atomic.Bool
	currentJob   string
	currentState State
	last         map[string]*types.Report
	passes       int
	loadFailures int
	lastRun      time.Time

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithJobs appends jobs to the roster, in order.
func WithJobs(jobs ...Job) Option {
	return func(s *Service) {
		for i := range jobs {
			j := jobs[i]
			s.jobs = append(s.jobs, &j)
		}
	}
}

// WithReportDir writes one JSON report per pass under dir.
func WithReportDir(dir string) Option {
	return func(s *Service) {
		s.reportDir = dir
	}
}

// WithWriteDelay sets the minimum spacing between ledger writes.
func WithWriteDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.writeDelay = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		byName:     make(map[string]*Job),
		writeDelay: defaultWriteDelay,
		last:       make(map[string]*types.Report),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks the roster and readies the service for passes.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("sync")
	}

	// Rebuilt on every Start; Stop keeps the roster.
	s.byName = make(map[string]*Job, len(s.jobs))
	for _, j := range s.jobs {
		if j.Name == "" {
			return errors.New("sync job without a name")
		}
		if _, dup := s.byName[j.Name]; dup {
			return fmt.Errorf("duplicate sync job %q", j.Name)
		}
		if j.Source == nil || j.Ledger == nil {
			return fmt.Errorf("sync job %q is missing a source or ledger store", j.Name)
		}
		if j.Engine == nil {
			j.Engine = diff.New()
		}
		s.byName[j.Name] = j
	}

	s.started = true
	s.logger.Info(ctx, "sync service started",
		logger.Int("jobs", len(s.jobs)),
		logger.Duration("write_delay", s.writeDelay),
		logger.String("report_dir", s.reportDir))
	return nil
}

// Stop refuses further passes. A pass already running completes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "sync service stopped")
}

func (s *Service) acquire() error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrPassInProgress
	}
	return nil
}

// Run performs one pass of the named job. The returned report is non-nil
// whenever the pass started, including when it failed to load.
func (s *Service) Run(ctx context.Context, name string) (*types.Report, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.running.Store(false)

	s.mu.RLock()
	job, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return s.runJob(ctx, job)
}

// RunAll runs every job once, in roster order. A load failure in one job
// does not stop the others; all such errors are joined.
func (s *Service) RunAll(ctx context.Context) ([]*types.Report, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.running.Store(false)

	var (
		reports []*types.Report
		errs    []error
	)
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		r, err := s.runJob(ctx, job)
		if r != nil {
			reports = append(reports, r)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
		}
	}
	return reports, errors.Join(errs...)
}

// Schedule runs every job now and then once per interval until ctx ends.
// Pass errors are logged, not returned.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunAll(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "scheduled round finished with errors", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) runJob(ctx context.Context, job *Job) (*types.Report, error) {
	s.mu.Lock()
	s.currentJob = job.Name
	s.currentState = StateInit
	s.mu.Unlock()

	p := &pass{
		job:    job,
		logger: s.logger,
		delay:  s.writeDelay,
		now:    s.now,
		onStep: func(st State) {
			s.mu.Lock()
			s.currentState = st
			s.mu.Unlock()
		},
	}
	start := time.Now()
	err := p.run(ctx)
	report := p.report

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "failed"
	case report.Failed > 0:
		outcome = "partial"
	}
	metrics.RecordPass(job.Name, outcome, time.Since(start).Seconds())

	if s.reportDir != "" {
		path, werr := writeReport(s.reportDir, report)
		if werr != nil {
			s.logger.Error(ctx, "could not persist report", logger.String("job", job.Name), logger.Error(werr))
			if err == nil {
				err = werr
			}
		} else {
			s.logger.Debug(ctx, "report written", logger.String("path", path))
		}
	}

	s.mu.Lock()
	s.last[job.Name] = report
	s.passes++
	if errors.Is(err, ErrLoadFailure) {
		s.loadFailures++
	}
	s.lastRun = report.FinishedAt
	s.currentJob = ""
	s.mu.Unlock()

	s.logger.Info(ctx, "reconciliation pass finished",
		logger.String("job", job.Name),
		logger.String("pass_id", report.PassID),
		logger.String("state", report.State),
		logger.Int("source_rows", report.SourceRows),
		logger.Int("ledger_rows", report.LedgerRows),
		logger.Int("matched", report.MatchedTotal()),
		logger.Int("plans", report.PlansGenerated),
		logger.Int("succeeded", report.Succeeded),
		logger.Int("failed", report.Failed),
		logger.Int("duplicates_flagged", report.DuplicatesFlagged),
		logger.Duration("took", time.Since(start)))
	return report, err
}

// LastReport returns the most recent report of the named job.
func (s *Service) LastReport(name string) (*types.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.last[name]
	return r, ok
}

// LastReports returns the most recent report of every job that has run,
// in roster order.
func (s *Service) LastReports() []*types.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Report, 0, len(s.last))
	for _, j := range s.jobs {
		if r, ok := s.last[j.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name)
	}
	stats := map[string]interface{}{
		"started":      s.started,
		"running":      s.running.Load(),
		"jobs":         names,
		"passes":       s.passes,
		"loadFailures": s.loadFailures,
	}
	if !s.lastRun.IsZero() {
		stats["lastRun"] = s.lastRun
	}
	if s.currentJob != "" {
		stats["currentJob"] = s.currentJob
		stats["currentState"] = s.currentState.String()
	}
	return stats
}

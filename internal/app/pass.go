package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brian-reel/airtable-heroku/internal/app/executor"
	"github.com/brian-reel/airtable-heroku/internal/domain/canonical"
	"github.com/brian-reel/airtable-heroku/internal/domain/identity"
	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/internal/domain/types"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
	"github.com/brian-reel/airtable-heroku/pkg/metrics"
)

// pass is one end-to-end reconciliation of a job. It is single use.
type pass struct {
	job    *Job
	report *types.Report
	state  State
	logger logger.Logger
	delay  time.Duration
	now    func() time.Time
	onStep func(State)
}

func (p *pass) advance(s State) {
	p.state = s
	p.report.State = s.String()
	if p.onStep != nil {
		p.onStep(s)
	}
}

func (p *pass) fail(ctx context.Context, store string, err error) error {
	p.advance(StateFailed)
	p.report.Error = err.Error()
	p.report.FinishedAt = p.now()
	metrics.RecordLoadFailure(p.job.Name, store)
	p.logger.Error(ctx, "reconciliation pass aborted, nothing written",
		logger.String("store", store),
		logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrLoadFailure, store, err)
}

// matchedPair is a ledger record and the source whose claim on it won.
type matchedPair struct {
	source *model.SourceEntity
	record *model.LedgerRecord
}

// run executes the pass. The report is complete on every return; the error
// is non-nil only for load failures.
func (p *pass) run(ctx context.Context) error {
	job := p.job
	p.report = types.NewReport(uuid.NewString(), job.Name, job.Table, p.now())
	p.report.DryRun = job.DryRun
	p.logger = p.logger.Named(job.Name)
	p.advance(StateInit)

	rows, err := job.Source.FetchEntities(ctx, job.Filter)
	if err != nil {
		return p.fail(ctx, "source", err)
	}
	p.report.SourceRows = len(rows)
	p.advance(StateSourceLoaded)

	valid := make([]model.SourceEntity, 0, len(rows))
	for i := range rows {
		issues := validateEntity(&rows[i])
		if len(issues) == 0 {
			valid = append(valid, rows[i])
			continue
		}
		for _, issue := range issues {
			metrics.RecordValidationFailure(job.Name, issue.Field)
			p.logger.Warn(ctx, "skipping invalid source row",
				logger.String("source_id", issue.SourceID),
				logger.String("field", issue.Field),
				logger.String("reason", issue.Reason))
		}
		p.report.Invalid = append(p.report.Invalid, issues...)
	}
	sources := canonical.Reduce(valid)
	p.report.CanonicalRows = len(sources)

	records, err := job.Ledger.FetchAll(ctx, job.fetchFields())
	if err != nil {
		return p.fail(ctx, "ledger", err)
	}
	p.report.LedgerRows = len(records)
	metrics.UpdateRowCounts(job.Name, len(rows), len(records))
	p.advance(StateLedgerLoaded)

	ix := identity.NewIndex(records)
	for _, c := range ix.IdentityCollisions() {
		p.report.Collisions = append(p.report.Collisions, types.Collision{EmployeeID: c.EmployeeID, RecordIDs: c.RecordIDs})
		p.logger.Warn(ctx, "employee id held by several ledger records",
			logger.String("employee_id", c.EmployeeID),
			logger.Any("record_ids", c.RecordIDs))
	}

	pairs, creates := p.resolve(ctx, sources, ix)
	p.advance(StateResolved)

	plans := p.plan(ctx, pairs, creates, records)
	p.advance(StateDiffed)

	exec := executor.New(job.Ledger,
		executor.WithDelay(p.delay),
		executor.WithJob(job.Name),
		executor.WithLogger(p.logger))
	res := exec.Apply(ctx, plans)
	p.report.Applied = len(plans)
	p.report.Succeeded = len(res.Succeeded)
	p.report.Failed = len(res.Failed)
	for _, f := range res.Failed {
		p.report.Failures = append(p.report.Failures, types.Failure{
			RecordID:  f.Plan.RecordID,
			SourceID:  f.Plan.SourceID,
			Attempted: f.Plan.Attempted(),
			Error:     fmt.Errorf("%w: %w", ErrWriteFailure, f.Err).Error(),
		})
	}
	p.advance(StateApplied)

	p.report.FinishedAt = p.now()
	p.advance(StateReported)
	return nil
}

// claim is one source resolved onto a ledger record.
type claim struct {
	source *model.SourceEntity
	kind   model.KeyKind
}

// winner picks the claim that is diffed: the stronger match key first, then
// the canonical rank of the claimants, then source order.
func winner(claims []claim) int {
	best := 0
	for i := 1; i < len(claims); i++ {
		c, b := claims[i], claims[best]
		if c.kind < b.kind || (c.kind == b.kind && canonical.Outranks(c.source, b.source)) {
			best = i
		}
	}
	return best
}

// resolve matches every canonical source. A ledger record claimed by more
// than one source is diffed against the winning claim only.
func (p *pass) resolve(ctx context.Context, sources []model.SourceEntity, ix *identity.Index) ([]matchedPair, []*model.SourceEntity) {
	var (
		creates []*model.SourceEntity
		order   []*model.LedgerRecord
		claims  = make(map[string][]claim)
	)
	for i := range sources {
		src := &sources[i]
		m := identity.Resolve(src, ix)
		if !m.Matched() {
			p.report.Unmatched++
			if p.job.CreateMissing && src.Active {
				creates = append(creates, src)
			}
			continue
		}

		kind := m.Kind.String()
		p.report.Matched[kind]++
		metrics.RecordMatch(p.job.Name, kind, m.Ambiguous)
		if m.Ambiguous {
			ids := make([]string, len(m.Candidates))
			for j, c := range m.Candidates {
				ids[j] = c.ID
			}
			p.report.Ambiguous = append(p.report.Ambiguous, types.AmbiguousMatch{
				SourceID:   src.ID,
				Kind:       kind,
				Key:        m.Key,
				RecordID:   m.Record.ID,
				Candidates: ids,
			})
			p.logger.Warn(ctx, "ambiguous match, using first candidate",
				logger.String("source_id", src.ID),
				logger.String("kind", kind),
				logger.String("record_id", m.Record.ID),
				logger.Int("candidates", len(ids)))
		}

		if _, seen := claims[m.Record.ID]; !seen {
			order = append(order, m.Record)
		}
		claims[m.Record.ID] = append(claims[m.Record.ID], claim{source: src, kind: m.Kind})
	}

	pairs := make([]matchedPair, 0, len(order))
	for _, rec := range order {
		cs := claims[rec.ID]
		w := winner(cs)
		pairs = append(pairs, matchedPair{source: cs[w].source, record: rec})
		if len(cs) == 1 {
			continue
		}

		ids := make([]string, 0, len(cs))
		ids = append(ids, cs[w].source.ID)
		for i, c := range cs {
			if i != w {
				ids = append(ids, c.source.ID)
			}
		}
		p.report.Conflicts = append(p.report.Conflicts, types.Conflict{RecordID: rec.ID, SourceIDs: ids})
		p.logger.Warn(ctx, "ledger record claimed by several source entities",
			logger.String("record_id", rec.ID),
			logger.String("diffed_source_id", ids[0]),
			logger.Any("source_ids", ids))
	}
	return pairs, creates
}

// plan diffs every pair, adds create and duplicate-flag plans, and drops
// plans without changes. A flag for a record that already has an update
// plan is folded into that plan.
func (p *pass) plan(ctx context.Context, pairs []matchedPair, creates []*model.SourceEntity, records []model.LedgerRecord) []model.UpdatePlan {
	job := p.job
	var plans []model.UpdatePlan
	byRecord := make(map[string]int)
	for _, pair := range pairs {
		plan := job.Engine.Compute(pair.source, pair.record)
		if plan.Empty() {
			continue
		}
		byRecord[plan.RecordID] = len(plans)
		plans = append(plans, plan)
	}

	if job.Detector != nil {
		groups := job.Detector.Detect(records)
		flags := job.Detector.FlagPlans(groups)
		p.report.DuplicateGroups = len(groups)
		p.report.DuplicatesFlagged = len(flags)
		metrics.RecordDuplicatesFlagged(job.Name, len(flags))
		for _, f := range flags {
			if i, ok := byRecord[f.RecordID]; ok {
				plans[i].Changes = append(plans[i].Changes, f.Changes...)
				continue
			}
			plans = append(plans, f)
		}
		if len(groups) > 0 {
			p.logger.Info(ctx, "duplicate ledger records detected",
				logger.Int("groups", len(groups)),
				logger.Int("flagged", len(flags)))
		}
	}

	for _, src := range creates {
		plans = append(plans, job.Engine.Create(src))
	}
	p.report.Creates = len(creates)
	p.report.PlansGenerated = len(plans)
	metrics.RecordPlans(job.Name, len(plans))
	return plans
}

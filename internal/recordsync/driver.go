// Package recordsync drives one sync run: it pages the record store,
// resolves each security's facts, optionally verifies its identity and
// writes the resolved fields back.
package recordsync

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/factsync/internal/metrics"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/resilience"
	"github.com/sells-group/factsync/internal/resolve"
)

// RecordStore is the paged record collection the driver syncs.
type RecordStore interface {
	QueryPage(ctx context.Context, filter model.Filter, cursor string) (model.Page, error)
	UpdateRecord(ctx context.Context, id string, u model.Update) error
}

// Resolver fetches facts for one ticker.
type Resolver interface {
	Resolve(ctx context.Context, ticker, hint string, fields []model.Field) resolve.Resolution
}

// Verifier checks a stored name against the resolved one.
type Verifier interface {
	Verify(ctx context.Context, ticker, storedName, resolvedName string) model.Verification
}

// RunStore records run history.
type RunStore interface {
	StartRun(ctx context.Context, job string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, result model.RunResult) error
}

// Observer receives per-record and per-run metrics.
type Observer interface {
	ObserveRecord(job, outcome string)
	ObserveRun(elapsed time.Duration, stoppedEarly bool, err error, now time.Time)
}

// Options controls a single run.
type Options struct {
	Job Job
	// Fields overrides the job preset when non-empty.
	Fields []model.Field
	Filter model.Filter
	// WriteDelay is the minimum spacing between record writes.
	WriteDelay time.Duration
	// MaxRuntime caps the run's wall-clock time; zero means no cap.
	MaxRuntime time.Duration
	// WriteMarketHint writes the accepted candidate's market back.
	WriteMarketHint bool
	// Retry bounds transient page-query retries.
	Retry resilience.RetryConfig
}

// Summary is the outcome of a run.
type Summary struct {
	RunID        string        `json:"run_id,omitempty"`
	Job          Job           `json:"job"`
	Counts       model.Counts  `json:"counts"`
	Pages        int           `json:"pages"`
	Elapsed      time.Duration `json:"elapsed"`
	StoppedEarly bool          `json:"stopped_early"`
}

// Driver runs sync jobs. It processes records sequentially on the calling
// goroutine.
type Driver struct {
	records  RecordStore
	resolver Resolver
	verifier Verifier
	runs     RunStore
	observer Observer
	now      func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithVerifier enables identity verification for verify jobs.
func WithVerifier(v Verifier) Option {
	return func(d *Driver) { d.verifier = v }
}

// WithRunStore records each run's start and finish.
func WithRunStore(s RunStore) Option {
	return func(d *Driver) { d.runs = s }
}

// WithObserver reports record outcomes and run totals.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// New creates a Driver.
func New(records RecordStore, resolver Resolver, opts ...Option) *Driver {
	d := &Driver{records: records, resolver: resolver, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// run holds the mutable state of one Run call.
type run struct {
	opts     Options
	fields   []model.Field
	limiter  *rate.Limiter
	deadline time.Time
	summary  Summary
}

// Run syncs every record matching opts.Filter. Hitting the runtime cap or
// cancelling ctx ends the run early without an error. A page-query failure
// that survives the retries aborts the run; records already written stay
// written.
func (d *Driver) Run(ctx context.Context, opts Options) (Summary, error) {
	job, err := ParseJob(string(opts.Job))
	if err != nil {
		return Summary{}, err
	}
	opts.Job = job
	if opts.Job.Verifies() && d.verifier == nil {
		return Summary{}, eris.New("recordsync: verify job requires a verifier")
	}

	start := d.now()
	r := &run{
		opts:    opts,
		fields:  fieldsFor(opts.Job, opts.Fields),
		limiter: newLimiter(opts.WriteDelay),
		summary: Summary{Job: opts.Job},
	}
	if opts.MaxRuntime > 0 {
		r.deadline = start.Add(opts.MaxRuntime)
	}

	log := zap.L().With(zap.String("job", string(opts.Job)))
	log.Info("sync run starting",
		zap.String("fields", model.FieldNames(r.fields)),
		zap.Duration("max_runtime", opts.MaxRuntime),
		zap.Duration("write_delay", opts.WriteDelay),
	)

	if d.runs != nil {
		started, err := d.runs.StartRun(ctx, string(opts.Job))
		if err != nil {
			log.Warn("failed to record run start", zap.Error(err))
		} else {
			r.summary.RunID = started.ID
			log = log.With(zap.String("run_id", started.ID))
		}
	}

	err = d.loop(ctx, r, log)

	r.summary.Elapsed = d.now().Sub(start)
	d.finish(ctx, r, err, log)
	if err != nil {
		return r.summary, err
	}
	return r.summary, nil
}

func (d *Driver) loop(ctx context.Context, r *run, log *zap.Logger) error {
	retry := r.opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("recordstore query page")
	}

	cursor := ""
	for {
		if d.shouldStop(ctx, r) {
			r.summary.StoppedEarly = true
			return nil
		}

		page, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (model.Page, error) {
			return d.records.QueryPage(ctx, r.opts.Filter, cursor)
		})
		if err != nil {
			if ctx.Err() != nil {
				r.summary.StoppedEarly = true
				return nil
			}
			return eris.Wrap(err, "recordsync: query page")
		}
		r.summary.Pages++
		log.Debug("page fetched",
			zap.Int("page", r.summary.Pages),
			zap.Int("records", len(page.Records)),
			zap.Bool("has_more", page.HasMore),
		)

		for _, rec := range page.Records {
			if d.shouldStop(ctx, r) {
				r.summary.StoppedEarly = true
				return nil
			}
			outcome := d.process(ctx, r, rec, log)
			d.count(r, outcome)
		}

		if !page.HasMore || page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

// process handles one record and returns its outcome.
func (d *Driver) process(ctx context.Context, r *run, rec model.SecurityRecord, log *zap.Logger) string {
	log = log.With(zap.String("record", rec.ID), zap.String("ticker", rec.Ticker))
	if rec.Ticker == "" {
		log.Debug("skipping record without ticker")
		return metrics.OutcomeSkipped
	}

	res := d.resolver.Resolve(ctx, rec.Ticker, rec.MarketHint, r.fields)

	update := model.NewUpdate(res.Facts, d.now())
	if r.opts.WriteMarketHint && res.Candidate != nil {
		update.MarketHint = res.Candidate.HintText()
	}
	if r.opts.Job.Verifies() {
		resolvedName := ""
		if res.Facts != nil {
			resolvedName, _ = res.Facts.Text(model.FieldName)
		}
		v := d.verifier.Verify(ctx, rec.Ticker, rec.StoredName, resolvedName)
		update.Verification = &v
		log = log.With(zap.Stringer("verdict", v.Verdict))
	}

	if update.Empty() {
		log.Warn("nothing resolved", zap.String("status", res.Status))
		return metrics.OutcomeFailed
	}

	if err := r.limiter.Wait(ctx); err != nil {
		log.Warn("write cancelled", zap.Error(err))
		return metrics.OutcomeFailed
	}
	if err := d.records.UpdateRecord(ctx, rec.ID, update); err != nil {
		log.Error("write failed", zap.Error(err))
		return metrics.OutcomeFailed
	}

	switch {
	case res.Complete():
		log.Info("record synced", zap.Int("fields", update.FieldCount()))
		return metrics.OutcomeSuccess
	case res.Resolved():
		log.Info("record partially synced",
			zap.Int("fields", update.FieldCount()),
			zap.String("status", res.Status),
		)
		return metrics.OutcomePartial
	default:
		log.Warn("nothing resolved", zap.String("status", res.Status))
		return metrics.OutcomeFailed
	}
}

func (d *Driver) count(r *run, outcome string) {
	switch outcome {
	case metrics.OutcomeSuccess:
		r.summary.Counts.Success++
	case metrics.OutcomePartial:
		r.summary.Counts.Partial++
	case metrics.OutcomeSkipped:
		r.summary.Counts.Skipped++
	default:
		r.summary.Counts.Failed++
	}
	if d.observer != nil {
		d.observer.ObserveRecord(string(r.opts.Job), outcome)
	}
}

func (d *Driver) shouldStop(ctx context.Context, r *run) bool {
	if ctx.Err() != nil {
		return true
	}
	return !r.deadline.IsZero() && !d.now().Before(r.deadline)
}

func (d *Driver) finish(ctx context.Context, r *run, err error, log *zap.Logger) {
	s := r.summary
	result := model.RunResult{
		Status:       model.RunStatusComplete,
		Counts:       s.Counts,
		StoppedEarly: s.StoppedEarly,
	}
	switch {
	case err != nil:
		result.Status = model.RunStatusFailed
		result.Error = err.Error()
	case s.StoppedEarly:
		result.Status = model.RunStatusStopped
	}

	fields := []zap.Field{
		zap.Int("success", s.Counts.Success),
		zap.Int("partial", s.Counts.Partial),
		zap.Int("failed", s.Counts.Failed),
		zap.Int("skipped", s.Counts.Skipped),
		zap.Int("pages", s.Pages),
		zap.Duration("elapsed", s.Elapsed),
		zap.Bool("stopped_early", s.StoppedEarly),
	}
	if err != nil {
		log.Error("sync run failed", append(fields, zap.Error(err))...)
	} else {
		log.Info("sync run complete", fields...)
	}

	if d.observer != nil {
		d.observer.ObserveRun(s.Elapsed, s.StoppedEarly, err, d.now())
	}
	if d.runs != nil && s.RunID != "" {
		// The run context may already be cancelled.
		if ferr := d.runs.FinishRun(context.WithoutCancel(ctx), s.RunID, result); ferr != nil {
			log.Warn("failed to record run finish", zap.Error(ferr))
		}
	}
}

// newLimiter spaces writes by delay with a burst of one, so the first write
// goes through immediately.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

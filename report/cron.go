package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stock-analyzer-go/gateway"
	"stock-analyzer-go/infrastructure/logger"
	"stock-analyzer-go/metrics"
	"stock-analyzer-go/recorder"
)

// Runner executes the weekly and daily reports on cron schedules and feeds
// the results to the recorder.
type Runner struct {
	cron    *cron.Cron
	fetcher gateway.Fetcher
	symbols []string
	rec     recorder.Recorder
	log     *logger.Logger
	ctx     context.Context

	mu       sync.Mutex
	weeklyID cron.EntryID
	dailyID  cron.EntryID
}

// NewRunner creates a report runner. rec may be nil for no recording.
func NewRunner(ctx context.Context, fetcher gateway.Fetcher, symbols []string, rec recorder.Recorder, log *logger.Logger) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		fetcher: fetcher,
		symbols: symbols,
		rec:     rec,
		log:     log,
		ctx:     ctx,
	}
}

// RegisterAll schedules both reports. Cron expressions use the 6-field
// seconds-first form.
func (r *Runner) RegisterAll(weeklySpec, dailySpec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(weeklySpec, dailySpec)
}

// Reschedule swaps both cron expressions. On a bad expression the previous
// schedules stay in effect. Safe while running (hot-reload path).
func (r *Runner) Reschedule(weeklySpec, dailySpec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wid, did := r.weeklyID, r.dailyID
	if err := r.register(weeklySpec, dailySpec); err != nil {
		return err
	}
	r.cron.Remove(wid)
	r.cron.Remove(did)
	return nil
}

// register adds both jobs, rolling back the weekly one if the daily spec is
// bad. Caller holds r.mu.
func (r *Runner) register(weeklySpec, dailySpec string) error {
	wid, err := r.cron.AddFunc(weeklySpec, r.weeklyTask)
	if err != nil {
		return fmt.Errorf("register weekly report: %w", err)
	}
	did, err := r.cron.AddFunc(dailySpec, r.dailyTask)
	if err != nil {
		r.cron.Remove(wid)
		return fmt.Errorf("register daily report: %w", err)
	}
	r.weeklyID, r.dailyID = wid, did
	return nil
}

// Start begins the cron scheduler.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops the cron scheduler; running jobs finish.
func (r *Runner) Stop() {
	r.cron.Stop()
}

func (r *Runner) weeklyTask() {
	entries, failed := BuildWeekly(r.ctx, r.fetcher, r.symbols)
	if len(entries) == 0 {
		metrics.ReportRuns.WithLabelValues("weekly", metrics.OutcomeFailure).Inc()
		if r.log != nil {
			r.log.Warn("weekly report produced no entries", zap.Strings("failed", failed))
		}
		return
	}
	metrics.ReportRuns.WithLabelValues("weekly", metrics.OutcomeSuccess).Inc()
	if r.log != nil {
		r.log.Info("weekly report",
			zap.Int("ranked", len(entries)),
			zap.Strings("top", TopPerformers(entries, 3)),
			zap.Strings("failed", failed))
	}

	rows := make([]recorder.WeeklyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, recorder.WeeklyRow{
			Symbol:     e.Symbol,
			WeekLow:    e.WeekLow,
			WeekHigh:   e.WeekHigh,
			RangePct:   e.RangePct,
			Suggestion: string(e.Suggestion),
		})
	}
	if err := r.rec.RecordWeekly(rows); err != nil && r.log != nil {
		r.log.Warn("record weekly report", zap.Error(err))
	}
}

func (r *Runner) dailyTask() {
	entries, failed := BuildDaily(r.ctx, r.fetcher, r.symbols)
	if len(entries) == 0 {
		metrics.ReportRuns.WithLabelValues("daily", metrics.OutcomeFailure).Inc()
		if r.log != nil {
			r.log.Warn("daily report produced no entries", zap.Strings("failed", failed))
		}
		return
	}
	metrics.ReportRuns.WithLabelValues("daily", metrics.OutcomeSuccess).Inc()
	if r.log != nil {
		r.log.Info("daily report", zap.Int("entries", len(entries)), zap.Strings("failed", failed))
	}

	rows := make([]recorder.DailyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, recorder.DailyRow{
			Symbol: e.Symbol,
			Open:   e.Open,
			Last:   e.Last,
			Net:    e.Net,
		})
	}
	if err := r.rec.RecordDaily(rows); err != nil && r.log != nil {
		r.log.Warn("record daily report", zap.Error(err))
	}
}

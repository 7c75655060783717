package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "SignalDesk/pkg/logger"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Runner runs named background jobs on cron schedules. Every job is
// wrapped in Recover and SkipIfStillRunning, so a tick that arrives while
// the previous run is active is dropped and logged.
type Runner struct {
	cron *cron.Cron
	l    *applogger.Logger
	clog cron.Logger

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	initial []cron.Job
	wg      sync.WaitGroup
}

func New(l *applogger.Logger) *Runner {
	if l == nil {
		l = applogger.Nop()
	}
	clog := cronLogger{l: l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron:    cron.New(cron.WithParser(parser), cron.WithLogger(clog), cron.WithLocation(time.UTC)),
		l:       l,
		clog:    clog,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Add registers job under spec, e.g. "@every 60s" or "0 */5 * * * *".
// When immediate is true the job also runs once as soon as Start is called.
func (r *Runner) Add(name, spec string, immediate bool, job func(context.Context)) (cron.EntryID, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("scheduler: %s: parse %q: %w", name, spec, err)
	}
	return r.schedule(name, sched, immediate, job), nil
}

// Every registers job to run at a fixed interval (rounded to whole seconds).
func (r *Runner) Every(name string, interval time.Duration, immediate bool, job func(context.Context)) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("scheduler: %s: interval %s below one second", name, interval)
	}
	return r.schedule(name, cron.Every(interval), immediate, job), nil
}

func (r *Runner) schedule(name string, sched cron.Schedule, immediate bool, job func(context.Context)) cron.EntryID {
	wrapped := cron.NewChain(
		cron.Recover(r.clog),
		cron.SkipIfStillRunning(jobLogger{cronLogger: cronLogger{l: r.l}, job: name}),
	).Then(cron.FuncJob(func() {
		start := time.Now()
		job(r.baseCtx)
		r.l.Debug("job finished", applogger.String("job", name), applogger.Duration("took", time.Since(start)))
	}))

	r.mu.Lock()
	if immediate {
		r.initial = append(r.initial, wrapped)
	}
	r.mu.Unlock()
	return r.cron.Schedule(sched, wrapped)
}

// Start launches the scheduler and the immediate runs.
func (r *Runner) Start() {
	r.mu.Lock()
	initial := r.initial
	r.initial = nil
	r.mu.Unlock()

	for _, j := range initial {
		r.wg.Add(1)
		go func(j cron.Job) {
			defer r.wg.Done()
			j.Run()
		}(j)
	}
	r.cron.Start()
	r.l.Info("scheduler started", applogger.Int("jobs", len(r.cron.Entries())))
}

// Stop cancels the jobs' context and waits for running jobs to return.
func (r *Runner) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
	r.wg.Wait()
	r.l.Info("scheduler stopped")
}

// Next returns the next activation time of id.
func (r *Runner) Next(id cron.EntryID) time.Time {
	return r.cron.Entry(id).Next
}

// cronLogger adapts the application logger to cron.Logger. cron's own
// Info messages (wake, run, schedule) are logged at debug.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron "+msg, append(kvFields(keysAndValues), applogger.Error(err))...)
}

// jobLogger names the job in SkipIfStillRunning's "skip" message and raises it to warn.
type jobLogger struct {
	cronLogger
	job string
}

func (j jobLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		j.l.Warn("job still running, tick skipped", applogger.String("job", j.job))
		return
	}
	j.cronLogger.Info(msg, keysAndValues...)
}

func kvFields(kv []interface{}) []applogger.Field {
	fields := make([]applogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, applogger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}

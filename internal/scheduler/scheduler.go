package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
)

// Runner is the monitor as seen by the scheduler.
type Runner interface {
	TryRun(ctx context.Context) (*model.RunReport, bool)
	Last() *model.RunReport
	Baseline() model.Snapshot
	FormatOptions() notifier.FormatOptions
}

// Scheduler triggers monitoring runs on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Ctx    context.Context
}

// NewScheduler creates a new Scheduler. Cron expressions include a seconds field.
func NewScheduler(ctx context.Context, runner Runner) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Runner: runner,
		Ctx:    ctx,
	}
}

// Register adds the monitoring run under the given cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.runTask); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a run immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() (*model.RunReport, bool) {
	return s.Runner.TryRun(s.Ctx)
}

func (s *Scheduler) runTask() {
	if s.Ctx.Err() != nil {
		return
	}
	log.Println("[INFO] running scheduled check")
	if _, ok := s.Runner.TryRun(s.Ctx); !ok {
		log.Println("[WARN] previous run still in progress, skipping")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	opts := s.Runner.FormatOptions()
	// Telegram appends the bot name in groups: /status@my_bot
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	switch command {
	case "/status":
		return notifier.FormatReport(s.Runner.Last(), opts)
	case "/run":
		rep, ok := s.RunNow()
		if !ok {
			return "A run is already in progress."
		}
		return notifier.FormatReport(rep, opts)
	case "/baseline":
		return notifier.FormatBaseline(s.Runner.Baseline(), 10, opts)
	default:
		return "Available commands:\n• /status\n• /run\n• /baseline"
	}
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fetchq/internal/config"
	"fetchq/internal/fetch"
	"fetchq/internal/progress"
	"fetchq/internal/queue"
)

type runSummary struct {
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
	Uptime    string `json:"uptime"`
	Interrupt bool   `json:"interrupted,omitempty"`
}

func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "settings path")
	concurrency := fs.Int("concurrency", 0, "override worker count")
	outputDir := fs.String("output-dir", "", "override download directory")
	audio := fs.Bool("audio", false, "queue audio extraction for the given URLs")
	quality := fs.String("quality", "", "video quality for the given URLs: best, 1080p, or 720p")
	jsonOut := fs.Bool("json", false, "print a JSON summary on exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *concurrency > 0 {
		settings.Concurrency = *concurrency
	}
	if strings.TrimSpace(*outputDir) != "" {
		settings.OutputDir = strings.TrimSpace(*outputDir)
	}
	if err := fetch.CheckDependencies(); err != nil {
		return fmt.Errorf("%w (run `fetchq doctor` for details)", err)
	}

	sched, cleanup, err := buildScheduler(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	if fs.NArg() > 0 {
		variant, err := variantFromFlags(*audio, *quality)
		if err != nil {
			return err
		}
		for _, url := range fs.Args() {
			sched.Submit(url, variant)
		}
	}

	return drainQueue(sched, settings.Concurrency, *jsonOut)
}

// drainQueue runs the scheduler to idle in plain log mode, closing it on
// the way out. SIGINT cancels active attempts and persists the queue.
func drainQueue(sched *queue.Scheduler, workers int, jsonOut bool) error {
	status := sched.Status()
	if status.Counts.Queued == 0 && status.Counts.Processing == 0 {
		fmt.Println("queue is empty; add sources with `fetchq add <url>`")
		sched.Close()
		return nil
	}
	fmt.Printf("draining %d job(s) with %d worker(s)\n", status.Counts.Queued, workers)

	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		printPlainEvents(sched.Events())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interrupted := false
	if err := sched.WaitIdle(ctx); err != nil {
		interrupted = true
		fmt.Println("\ninterrupted; returning in-flight jobs to the queue")
	}

	final := sched.Status()
	summary := runSummary{
		Completed: final.Counts.Completed,
		Failed:    final.Counts.Failed,
		Remaining: final.Counts.Queued + final.Counts.Processing,
		Uptime:    final.Uptime,
		Interrupt: interrupted,
	}
	sched.Close()
	<-printerDone

	if interrupted {
		// Close reclaimed in-flight jobs back into the queue; recount.
		summary.Remaining = sched.Status().Counts.Queued
	}

	if jsonOut {
		return printJSON(summary)
	}
	fmt.Printf("done: %d completed, %d failed, %d remaining\n", summary.Completed, summary.Failed, summary.Remaining)
	if summary.Interrupt {
		fmt.Println("rerun `fetchq run` to resume the remaining jobs")
	}
	return nil
}

// printPlainEvents renders scheduler events as log lines until the event
// channel closes. Progress samples are folded into occasional aggregate
// lines to keep non-TTY output readable.
func printPlainEvents(events <-chan queue.Event) {
	lastWhole := -1.0
	for ev := range events {
		switch ev.Kind {
		case queue.EventJobStarted:
			fmt.Printf("start    %s  attempt %d/%d  %s\n", ev.Job.ID, ev.Job.Attempts+1, ev.Job.MaxAttempts, ev.Job.SourceURL)
		case queue.EventJobRetried:
			fmt.Printf("retry    %s  attempt %d/%d failed: %s\n", ev.Job.ID, ev.Job.Attempts, ev.Job.MaxAttempts, ev.Err)
		case queue.EventJobCompleted:
			fmt.Printf("done     %s  %s (%s)\n", ev.Job.ID, ev.Job.DisplayTitle(), formatBytesIEC(ev.Job.SizeBytes))
		case queue.EventJobFailed:
			fmt.Printf("failed   %s  %s: %s\n", ev.Job.ID, ev.Job.DisplayTitle(), ev.Err)
		case queue.EventAggregate:
			whole := float64(int(ev.Aggregate.AveragePercent / 10))
			if ev.Aggregate.ActiveCount > 0 && whole != lastWhole {
				lastWhole = whole
				fmt.Printf("progress %.1f%% avg across %d active, %.2f MB/s, eta %s\n",
					ev.Aggregate.AveragePercent, ev.Aggregate.ActiveCount, ev.Aggregate.CombinedRateMBs, ev.Aggregate.ETA)
			}
		}
	}
}

// summarizeAggregate is shared by plain and TUI renderers.
func summarizeAggregate(agg progress.Aggregate) string {
	if agg.ActiveCount == 0 {
		return "no active downloads"
	}
	return fmt.Sprintf("%.1f%% avg | %.2f MB/s combined | overall %.0f%% | eta %s",
		agg.AveragePercent, agg.CombinedRateMBs, agg.OverallProgress*100, agg.ETA)
}

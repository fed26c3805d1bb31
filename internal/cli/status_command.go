package cli

import (
	"flag"
	"fmt"
	"time"

	"fetchq/internal/config"
	"fetchq/internal/model"
)

type statusReport struct {
	Backend   string      `json:"backend"`
	Queued    int         `json:"queued"`
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	LastSaved string      `json:"last_saved,omitempty"`
	Queue     []model.Job `json:"queue,omitempty"`
	Recent    []model.Job `json:"recent,omitempty"`
	Failures  []model.Job `json:"failures,omitempty"`
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "settings path")
	all := fs.Bool("all", false, "list every queued job, not just the next few")
	jsonOut := fs.Bool("json", false, "print machine-readable output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	store, cleanup, err := openStore(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	snap := store.Load()
	report := statusReport{
		Backend:   settings.StateBackend,
		Queued:    len(snap.Queue),
		Completed: len(snap.Completed),
		Failed:    len(snap.Failed),
		LastSaved: snap.LastSaved,
		Queue:     snap.Queue,
		Recent:    tailJobs(snap.Completed, 5),
		Failures:  tailJobs(snap.Failed, 5),
	}
	if !*all {
		report.Queue = headJobs(snap.Queue, 5)
	}

	if *jsonOut {
		return printJSON(report)
	}

	fmt.Printf("state backend: %s\n", report.Backend)
	fmt.Printf("queued %d | completed %d | failed %d\n", report.Queued, report.Completed, report.Failed)
	if report.LastSaved != "" {
		fmt.Printf("last saved: %s\n", report.LastSaved)
	}
	if snap.StartTime > 0 {
		started := time.UnixMilli(snap.StartTime)
		fmt.Printf("batch started: %s\n", started.Format(time.RFC3339))
	}
	if len(report.Queue) > 0 {
		fmt.Println()
		fmt.Println("Next up:")
		for _, job := range report.Queue {
			fmt.Printf("  %s  %s  (attempt %d/%d)\n", job.ID, job.DisplayTitle(), job.Attempts, job.MaxAttempts)
		}
		if !*all && report.Queued > len(report.Queue) {
			fmt.Printf("  ... and %d more (use --all)\n", report.Queued-len(report.Queue))
		}
	}
	if len(report.Recent) > 0 {
		fmt.Println()
		fmt.Println("Recently completed:")
		for _, job := range report.Recent {
			fmt.Printf("  %s  %s  %s\n", job.ID, job.DisplayTitle(), formatBytesIEC(job.SizeBytes))
		}
	}
	if len(report.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failed:")
		for _, job := range report.Failures {
			fmt.Printf("  %s  %s  %s\n", job.ID, job.DisplayTitle(), job.LastError)
		}
	}
	return nil
}

func headJobs(jobs []model.Job, n int) []model.Job {
	if len(jobs) <= n {
		return jobs
	}
	return jobs[:n]
}

func tailJobs(jobs []model.Job, n int) []model.Job {
	if len(jobs) <= n {
		return jobs
	}
	return jobs[len(jobs)-n:]
}

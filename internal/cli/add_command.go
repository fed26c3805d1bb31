package cli

import (
	"flag"
	"fmt"
	"time"

	"fetchq/internal/config"
	"fetchq/internal/model"
)

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "settings path")
	audio := fs.Bool("audio", false, "queue audio extraction instead of video")
	quality := fs.String("quality", "", "video quality: best, 1080p, or 720p")
	fromFile := fs.String("from-file", "", "read source URLs from a file, one per line")
	jsonOut := fs.Bool("json", false, "print machine-readable output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	urls := fs.Args()
	if *fromFile != "" {
		fileURLs, err := readURLFile(*fromFile)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("at least one source URL is required")
	}

	variant, err := variantFromFlags(*audio, *quality)
	if err != nil {
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
	added := make([]model.Job, 0, len(urls))
	for _, url := range urls {
		job := model.NewJob(url, variant, settings.MaxAttempts)
		snap.Queue = append(snap.Queue, job)
		added = append(added, job)
	}
	if snap.StartTime == 0 {
		snap.StartTime = time.Now().UnixMilli()
	}
	snap.LastSaved = time.Now().UTC().Format(time.RFC3339)
	if err := store.Save(snap); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}

	if *jsonOut {
		return printJSON(struct {
			Added  []model.Job `json:"added"`
			Queued int         `json:"queued"`
		}{Added: added, Queued: len(snap.Queue)})
	}
	for _, job := range added {
		fmt.Printf("queued %s  %s\n", job.ID, job.SourceURL)
	}
	fmt.Printf("%d job(s) queued (%d total pending)\n", len(added), len(snap.Queue))
	return nil
}

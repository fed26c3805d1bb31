package cli

import (
	"flag"
	"fmt"

	"fetchq/internal/config"
	"fetchq/internal/fetch"
	"fetchq/internal/httpapi"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "settings path")
	addr := fs.String("addr", ":8080", "listen address")
	rps := fs.Float64("rps", 0, "request rate limit per second (0 = default)")
	burst := fs.Int("burst", 0, "request burst allowance (0 = default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("serve takes no positional arguments")
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := fetch.CheckDependencies(); err != nil {
		return fmt.Errorf("%w (run `fetchq doctor` for details)", err)
	}

	sched, cleanup, err := buildScheduler(settings)
	if err != nil {
		return err
	}
	defer cleanup()
	defer sched.Close()

	server := httpapi.New(sched, *rps, *burst)
	fmt.Printf("serving queue API on %s (%d worker(s), %s state backend)\n",
		*addr, settings.Concurrency, settings.StateBackend)
	return server.Run(*addr)
}

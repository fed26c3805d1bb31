package cli

import (
	"fetchq/internal/config"
	"fetchq/internal/fetch"
	"fetchq/internal/progress"
	"fetchq/internal/proxy"
	"fetchq/internal/queue"
	"fetchq/internal/statestore"
)

// openStore picks the persistence backend from settings. The returned
// cleanup is safe to call even when it is a no-op.
func openStore(settings config.Settings) (statestore.Store, func(), error) {
	if settings.StateBackend == config.BackendRedis {
		store, err := statestore.NewRedisStore(settings.RedisAddr, settings.RedisPassword, "")
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return statestore.NewFileStore(settings.StatePath), func() {}, nil
}

func buildScheduler(settings config.Settings) (*queue.Scheduler, func(), error) {
	store, cleanup, err := openStore(settings)
	if err != nil {
		return nil, nil, err
	}
	cfg := queue.Config{
		Concurrency:    settings.Concurrency,
		MaxAttempts:    settings.MaxAttempts,
		RetryDelay:     settings.RetryDelay(),
		AttemptTimeout: settings.AttemptTimeout(),
		OutputDir:      settings.OutputDir,
		SaveInterval:   settings.SaveInterval(),
	}
	rotator := proxy.NewRotator(settings.Proxies)
	sched := queue.New(cfg, fetch.NewYTDLPFetcher(), rotator, store, progress.NewAggregator())
	return sched, cleanup, nil
}

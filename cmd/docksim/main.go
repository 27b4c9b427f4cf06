// docksim replays docking scenarios against a headless manager. It exists to
// exercise drag, drop, and persistence flows without a toolkit attached, and
// can keep the inspection server running afterwards for poking at the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/panekit/panekit/internal/config"
	"github.com/panekit/panekit/internal/inspect"
	"github.com/panekit/panekit/pkg/dock"
	"github.com/panekit/panekit/pkg/logging"
	"github.com/panekit/panekit/pkg/monitoring"
	"github.com/panekit/panekit/pkg/registry"
	"github.com/panekit/panekit/pkg/serialize"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Path to a YAML scenario to replay")
		configPath   = flag.String("config", "", "Optional TOML config file")
		serve        = flag.Bool("serve", false, "Keep the inspection server running after the scenario")
		dumpLayout   = flag.Bool("dump", false, "Print the final layout as JSON and exit")
	)
	flag.Parse()

	cfg := config.LoadOrDefault(*configPath)

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *scenarioPath, *serve, *dumpLayout); err != nil {
		log.Error("docksim failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logging.Logger, scenarioPath string, serve, dumpLayout bool) error {
	reg := registry.New(log)
	mgr := dock.NewManager(reg, log).
		WithMetrics(monitoring.NewMetrics(nil))

	var sc *Scenario
	if scenarioPath != "" {
		var err error
		sc, err = LoadScenario(scenarioPath)
		if err != nil {
			return err
		}
		registerFactories(reg, sc)
		log.Info("replaying scenario",
			zap.String("name", sc.Name),
			zap.Int("steps", len(sc.Steps)))
		if err := sc.Run(mgr, cfg.Layout.Path); err != nil {
			return err
		}
		log.Info("scenario complete",
			zap.Int("panels", len(mgr.Snapshot().Widgets())))
	}

	if dumpLayout {
		return dumpJSON(os.Stdout, mgr)
	}
	if !serve {
		return nil
	}

	srv := inspect.NewServer(mgr, inspect.Config{
		Host:              cfg.Inspect.Host,
		Port:              cfg.Inspect.Port,
		RequestsPerSecond: cfg.Inspect.RequestsPerSecond,
		Burst:             cfg.Inspect.Burst,
	}, log)
	addr := cfg.Inspect.Host + ":" + cfg.Inspect.Port

	errChan := make(chan error, 1)
	go func() {
		log.Info("inspection server listening", zap.String("addr", addr))
		errChan <- srv.Run(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("shutting down", zap.String("signal", sig.String()))
		return nil
	case err := <-errChan:
		return fmt.Errorf("inspection server: %w", err)
	}
}

// registerFactories installs a plain factory for every panel key the scenario
// mentions, so restores and docks resolve without per-scenario wiring.
func registerFactories(reg *registry.Registry, sc *Scenario) {
	seen := map[string]bool{}
	add := func(persistentID string) {
		key := serialize.FactoryKey(persistentID)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		reg.Register(key, func(id string) (registry.Panel, error) {
			return registry.Panel{Title: id}, nil
		})
	}
	for _, step := range sc.Steps {
		switch {
		case step.Open != nil:
			add(step.Open.Panel)
		case step.Dock != nil:
			add(step.Dock.Panel)
		}
	}
}

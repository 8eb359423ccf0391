package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/defistate/defistate-lp-go/cmd/planner/config"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/planner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sugawarayuuta/sonnet"
)

func main() {
	configPath := flag.String("config", "planner.yaml", "Path to the configuration file.")
	dumpMetrics := flag.Bool("metrics", false, "Write planner metrics to stderr on exit.")
	flag.Parse()

	// create the log handler
	rootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	close := func() {
		os.Exit(1)
	}

	log.Printf("Loading configuration from: %s", *configPath)
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	registry := prometheus.NewRegistry()
	p, err := planner.New(planner.Config{
		WrappedNative: cfg.WrappedNativeAddress(),
		Logger:        rootLogger.With("component", "planner"),
		Registry:      registry,
	})
	if err != nil {
		rootLogger.Error("Failed to initialize planner", "error", err)
		close()
	}

	req, err := cfg.PositionRequest()
	if err != nil {
		rootLogger.Error("Invalid position request", "error", err)
		close()
	}

	position, err := p.PlanPosition(req)
	if *dumpMetrics {
		writeMetrics(registry, rootLogger)
	}
	if err != nil {
		rootLogger.Error("Failed to plan position", "base", req.Base.Symbol, "quote", req.Quote.Symbol, "error", err)
		close()
	}

	out, err := sonnet.Marshal(position)
	if err != nil {
		rootLogger.Error("Failed to encode position", "error", err)
		close()
	}
	os.Stdout.Write(append(out, '\n'))
}

// writeMetrics writes the text exposition of registry to stderr.
func writeMetrics(registry *prometheus.Registry, logger *slog.Logger) {
	families, err := registry.Gather()
	if err != nil {
		logger.Error("Failed to gather metrics", "error", err)
		return
	}

	encoder := expfmt.NewEncoder(os.Stderr, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			logger.Error("Failed to encode metrics", "metric", mf.GetName(), "error", err)
			return
		}
	}
}

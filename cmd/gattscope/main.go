// gattscope analyzes Bluetooth Low Energy GATT traffic in pcap and pcapng
// captures: it prints a communication flow summary and a per-handle
// breakdown, and optionally exports the capture as OpenTelemetry spans.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"gattscope/internal/attributes"
	"gattscope/internal/capture"
	"gattscope/internal/config"
	"gattscope/internal/dissect"
	"gattscope/internal/eventstream"
	"gattscope/internal/flow"
	"gattscope/internal/gattnames"
	"gattscope/internal/otel"
	"gattscope/internal/output"
	"gattscope/internal/reassembly"
	"gattscope/internal/transaction"
)

// The report goes to stdout; all logging stays on stderr so the report
// remains pipeable.
var log = logrus.New()

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// setupOTEL initializes the OTEL provider and returns a tracer and cleanup function.
func setupOTEL(traceID trace.TraceID) (trace.Tracer, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}

	tp, err := otel.InitProvider(otelCfg, traceID, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(tp, shutdownCtx); err != nil {
			log.Warnf("Error shutting down OTEL provider: %v", err)
		}
	}

	return tp.Tracer("gattscope"), cleanup, nil
}

// exportSpans pairs the capture's transactions and sends them to the OTLP
// collector. The provider is initialized here, not at startup, because the
// trace ID derives from the first frame's timestamp.
func exportSpans(ctx context.Context, cfg *config.Config, evaluator *attributes.Evaluator, resolver *gattnames.Resolver, res eventstream.Result) error {
	traceID := attributes.CaptureTraceID(cfg.CapturePath, res.Base)
	tracer, cleanupOTEL, err := setupOTEL(traceID)
	if err != nil {
		return err
	}
	defer cleanupOTEL()

	txs := transaction.Pair(res.Events)
	output.NewOTELFormatter(tracer, resolver, evaluator).ExportCapture(ctx, cfg.CapturePath, txs, res.Base)
	return nil
}

func run() error {
	// Parse command line arguments
	cfg, err := config.ParseArgs(os.Args)
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("gattscope %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	log.Infof("Starting gattscope %s (commit: %s, built: %s)", version, commit, date)

	// Compile expressions up front so a bad flag fails before any file IO.
	filter, err := attributes.NewFilter(cfg.Filter)
	if err != nil {
		return err
	}
	evaluator, err := attributes.NewEvaluator(cfg.CustomAttributes)
	if err != nil {
		return err
	}

	reader, err := capture.Open(cfg.CapturePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Warnf("Error closing capture: %v", err)
		}
	}()

	resolver := gattnames.New()
	dissector, err := dissect.NewDissector(reader.LinkType(), resolver)
	if err != nil {
		return &capture.LoadError{Path: cfg.CapturePath, Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received signal, stopping...")
		cancel()
	}()

	stream := eventstream.New(reader, dissector, filter, log)
	res, err := stream.Run(ctx)
	if err != nil {
		return err
	}

	entries := flow.Assemble(res.Events)
	groups, malformed := reassembly.Reconstruct(res.Events)
	for _, m := range malformed {
		log.WithFields(logrus.Fields{
			"frame":  m.Frame,
			"reason": m.Reason,
		}).Warn("skipping malformed record")
	}

	output.NewFormatter(os.Stdout, resolver, cfg.MaxValue).Render(entries, groups)

	if cfg.OTELExport && len(res.Events) > 0 {
		if err := exportSpans(ctx, cfg, evaluator, resolver, res); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"frames":      res.Stats.FramesRead,
		"events":      res.Stats.Events,
		"skipped":     res.Stats.Skipped + len(malformed),
		"connections": res.Stats.Connections,
	}).Info("capture analyzed")

	return nil
}

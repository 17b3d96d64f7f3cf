package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/physioform/internal/document"
	"github.com/ppiankov/physioform/internal/llm"
	"github.com/ppiankov/physioform/internal/pipeline"
	"github.com/ppiankov/physioform/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve exposes extraction and roster generation over HTTP:

  POST /process-text       extract participants from text
  POST /generate-document  extract and download the XLSX roster
  GET  /health             re-probe AI availability
  GET  /setup-help         AI provider setup instructions

Example:
  physioform serve
  physioform serve --addr :9000 --provider openai`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverCfg := cfg.Server
	if serveAddr != "" {
		serverCfg.Addr = serveAddr
	}

	a := buildApp(ctx, cfg, false)
	llmCfg := a.llmConfig

	srv := server.New(a.orchestrator, document.NewGenerator(), func() llm.SetupGuide {
		return llm.Setup(llmCfg)
	}, serverCfg, server.Info{
		Version:     Version,
		Environment: serverCfg.Environment,
		Provider:    a.provider,
		Model:       a.model,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if a.provider != "" && serverCfg.ProbeInterval > 0 {
		g.Go(func() error {
			reprobe(gctx, a.orchestrator, serverCfg.ProbeInterval)
			return nil
		})
	}

	return g.Wait()
}

// reprobe refreshes the availability flag until ctx is done
func reprobe(ctx context.Context, orchestrator *pipeline.Orchestrator, interval time.Duration) {
	log := zap.L().With(zap.String("component", "availability.prober"))
	log.Debug("starting availability prober", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := orchestrator.Status().AIExtraction
			after := orchestrator.Recheck(ctx).AIExtraction
			if before != after {
				log.Info("AI availability changed", zap.Bool("available", after))
			}
		}
	}
}

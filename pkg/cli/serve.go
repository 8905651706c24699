package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mockpit/mockpit/pkg/control"
	"github.com/mockpit/mockpit/pkg/engine"
	"github.com/mockpit/mockpit/pkg/logging"
	"github.com/mockpit/mockpit/pkg/project"
	"github.com/mockpit/mockpit/pkg/requestlog"
	"github.com/mockpit/mockpit/pkg/tlsprov"
)

var (
	serveProjectFile string
	serveControlPort int
	serveAutostart   bool
	serveLogLevel    string
	serveLogFormat   string
	serveLogFile     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control API and, optionally, the mock server",
	Long: `Run the control API for managing the mock server.

The mock listener itself is started and stopped through the control API,
or immediately with --autostart using the project's stored settings.`,
	Example: `  # Run the control API on the default port
  mockpit serve

  # Load a project and start serving its endpoints right away
  mockpit serve --project demo.json --autostart

  # JSON logs to a rotated file
  mockpit serve --log-format json --log-file mockpit.log`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveProjectFile, "project", "p", "", "Path to a project file to load on startup")
	serveCmd.Flags().IntVar(&serveControlPort, "control-port", 4100, "Control API port")
	serveCmd.Flags().BoolVar(&serveAutostart, "autostart", false, "Start the mock server immediately with the project settings")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "text", "Log format (text or json)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Write logs to a size-rotated file instead of stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(serveLogLevel),
		Format: logging.ParseFormat(serveLogFormat),
		File:   serveLogFile,
	})

	state := project.DefaultState()
	if serveProjectFile != "" {
		loaded, err := project.LoadFromFile(serveProjectFile)
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}
		if err := project.ValidateState(loaded); err != nil {
			return fmt.Errorf("invalid project: %w", err)
		}
		state = loaded
		log.Info("project loaded", "path", serveProjectFile, "endpoints", len(state.Endpoints))
	}

	store := project.NewStore(state)
	prov := tlsprov.New(tlsprov.WithLogger(log))
	reqLog := requestlog.NewStore(0)

	dispatcher := engine.NewDispatcher(store,
		engine.WithLogger(log),
		engine.WithRequestLog(reqLog),
	)
	manager := engine.NewManager(store, prov, engine.NewCORSMiddleware(dispatcher, dispatcher),
		engine.WithManagerLogger(log),
	)

	ctrl := control.NewServer(serveControlPort, store, manager, prov, reqLog,
		control.WithLogger(log),
	)
	if err := ctrl.Start(); err != nil {
		return fmt.Errorf("starting control API: %w", err)
	}

	if serveAutostart {
		status, err := manager.Start(store.Current().Settings)
		if err != nil {
			_ = ctrl.Stop()
			return fmt.Errorf("starting mock server: %w", err)
		}
		log.Info("mock server started", "addr", status.BoundAddr, "tls", status.IsTLS)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	if err := manager.Stop(); err != nil && !errors.Is(err, engine.ErrNotRunning) {
		log.Warn("error stopping mock server", "error", err)
	}
	if err := ctrl.Stop(); err != nil {
		log.Warn("error stopping control API", "error", err)
	}
	if err := prov.CleanupEphemeral(); err != nil {
		log.Warn("error removing temporary certificates", "error", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/internal/config"
	"github.com/naveenspark/opsdesk/internal/log"
	"github.com/naveenspark/opsdesk/internal/session"
	"github.com/naveenspark/opsdesk/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env holds what every command needs once flags and config are resolved.
type env struct {
	flags     config.Overrides
	ephemeral bool

	cfg        *config.Config
	recordPath string // empty with --ephemeral
	logger     *log.Logger
	logFile    *os.File
	store      *session.Store
	auth       *auth.Context
	client     *client.Client
}

// setup wires config, logging, the session store, the auth context and the
// API client. The log goes to a file: the terminal belongs to the console.
func (e *env) setup() error {
	cfg, err := config.Load(e.flags)
	if err != nil {
		return err
	}
	e.cfg = cfg

	f, err := log.OpenFile(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	e.logFile = f
	e.logger = log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: f,
	})

	var storage session.Storage
	if e.ephemeral {
		storage = session.NewMemoryStorage(nil)
	} else {
		fs := session.NewFileStorage(cfg.StateDir)
		e.recordPath = fs.Path()
		storage = fs
	}
	e.store = session.NewStore(storage, e.logger)
	e.auth = auth.New(e.store, e.logger)
	e.client = client.New(cfg.APIURL,
		client.WithTransport(client.NewTransport(e.store, nil)),
		client.WithTimeout(cfg.Timeout),
	)
	e.logger.Debug("config resolved", "api_url", cfg.APIURL, "session_record", e.recordPath, "config_file", cfg.Path)
	return nil
}

func (e *env) close() {
	if e.auth != nil {
		e.auth.Close()
	}
	if e.logFile != nil {
		e.logFile.Close() //nolint:errcheck // best-effort close
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "opsdesk",
		Short:         "Terminal console for the opsdesk operations API",
		Long:          "opsdesk signs you in to the operations API and opens a console over users, inventory, suppliers, projects, notifications and the audit log.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			pterm.SetDefaultOutput(cmd.OutOrStdout())
			if cmd.Name() == "version" {
				return nil
			}
			return e.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runConsole(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.ConfigPath, "config", "", "config file (default <state-dir>/config.yaml)")
	pf.StringVar(&e.flags.APIURL, "api-url", "", "API base URL (env "+config.EnvAPIURL+")")
	pf.StringVar(&e.flags.StateDir, "state-dir", "", "directory for the session record and log (default ~/.opsdesk, env "+config.EnvStateDir+")")
	pf.StringVar(&e.flags.LogLevel, "log-level", "", "debug, info, warn or error (env "+config.EnvLogLevel+")")
	pf.BoolVar(&e.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newPermissionsCmd(e),
		newVersionCmd(),
	)
	return root
}

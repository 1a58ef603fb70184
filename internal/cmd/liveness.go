package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/imgrelay/service/internal/config"
	"github.com/imgrelay/service/internal/logger"
	"github.com/imgrelay/service/internal/server"
)

// LivenessOptions holds the options of the `liveness` command.
type LivenessOptions struct {
	cfg *config.Config

	Port string

	iooption.IOStreams
}

var (
	livenessLong = templates.LongDesc(`
		Start the liveness unit. It answers GET / with a fixed message and
		needs no credentials.`)

	livenessExample = templates.Examples(`
		# Start on the port from $PORT (default 8080)
		relay liveness`)
)

// NewLivenessOptions provides an initialised LivenessOptions instance.
func NewLivenessOptions(streams iooption.IOStreams) *LivenessOptions {
	return &LivenessOptions{
		IOStreams: streams,
	}
}

// NewLivenessCommand creates the `liveness` command.
func NewLivenessCommand(o *LivenessOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "liveness",
		Short:   "Start the liveness unit",
		Long:    livenessLong,
		Example: livenessExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run()
		},
	}

	cmd.Flags().StringVarP(&o.Port, "port", "p", "", "Port to listen on (overrides $PORT)")

	return cmd
}

func (o *LivenessOptions) Complete(cmd *cobra.Command, args []string) error {
	o.cfg = config.Load()
	if o.Port != "" {
		o.cfg.Port = o.Port
	}
	return nil
}

func (o *LivenessOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(o.cfg.LogLevel, o.cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	fmt.Fprintf(o.Out, "Starting liveness unit on :%s\n", o.cfg.Port)
	return server.Run(ctx, ":"+o.cfg.Port, server.NewLivenessRouter(log), log)
}

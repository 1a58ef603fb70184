package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliflag "github.com/tomasbasham/cli-runtime/flag"
	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/templates"
)

var (
	rootLong = templates.LongDesc(`
		Relay image uploads to a Google Cloud Storage bucket.

		The serve command runs the upload API. The liveness command runs a
		minimal unit that only reports that the relay is alive.`)

	rootExamples = templates.Examples(`
		# Run the upload API
		relay serve

		# Run the liveness unit on port 9090
		relay liveness --port 9090`)

	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// RelayOptions defines the options for the `relay` command.
type RelayOptions struct {
	iooption.IOStreams
}

// NewRelayOptions provides an initialised RelayOptions instance.
func NewRelayOptions(streams iooption.IOStreams) *RelayOptions {
	return &RelayOptions{
		IOStreams: streams,
	}
}

// NewRootCommand creates the `relay` command with default arguments.
func NewRootCommand() *cobra.Command {
	options := NewRelayOptions(iooption.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})

	return NewRootCommandWithArgs(options)
}

// NewRootCommandWithArgs creates the `relay` command and its nested
// children.
func NewRootCommandWithArgs(o *RelayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "relay [command]",
		Version:               versionInfo(),
		DisableFlagsInUseLine: true,
		Short:                 "Image upload relay for Google Cloud Storage",
		Long:                  rootLong,
		Example:               rootExamples,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}

	cmd.AddCommand(NewServeCommand(NewServeOptions(o.IOStreams)))
	cmd.AddCommand(NewLivenessCommand(NewLivenessOptions(o.IOStreams)))

	cmd.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc())

	return cmd
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rabbithole/internal/util"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile   string
	Store     string
	API       string
	Namespace string
	LogLevel  string
	Format    string // "json" | "text"

	// Config is resolved from the environment and the flags above before any
	// subcommand runs.
	Config util.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rabbithole CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "rabbithole",
		Short:         "Follow the white rabbit",
		Long:          "A terminal quest about escaping the Matrix of traditional teaching, with progress kept between sessions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading QUEST_* variables")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "progress store: sqlite|postgres|redis|memory")
	cmd.PersistentFlags().StringVar(&opts.API, "api", "", "quest backend base URL")
	cmd.PersistentFlags().StringVar(&opts.Namespace, "namespace", "", "storage key namespace")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewProgressCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))
	cmd.AddCommand(NewVersionCommand(version))

	return cmd
}

// resolve loads the environment and lets explicitly set flags win over it.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := util.Load(o.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StoreDriver = o.Store
	}
	if flags.Changed("api") {
		cfg.APIURL = o.API
	}
	if flags.Changed("namespace") {
		cfg.Namespace = o.Namespace
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

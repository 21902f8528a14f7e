package cli

import (
	"errors"
	"io"

	"github.com/specialistvlad/flowgraph/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// options holds the persistent flags and the App built from them.
type options struct {
	blocksPath string
	logFormat  string
	logLevel   string

	app *app.App
}

// NewRootCommand builds the command tree. Command output goes to out, logs go
// to logW.
func NewRootCommand(out, logW io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "flowgraph",
		Short: "Inspect, validate and upgrade signal-processing flowgraph designs",
		Long: `flowgraph loads a design file, resolves the dependencies between its
variables, evaluates every parameter and reports what is wrong with it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				BlocksPath: opts.blocksPath,
				LogFormat:  opts.logFormat,
				LogLevel:   opts.logLevel,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a, err := app.NewApp(logW, cfg)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
	}
	root.SetOut(out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.blocksPath, "blocks", "", "Directory with additional block definitions (.hcl).")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	root.AddCommand(
		newValidateCommand(opts),
		newOrderCommand(opts),
		newEvalCommand(opts),
		newUpgradeCommand(opts),
		newBlocksCommand(opts),
	)
	return root
}

// Execute runs the command line in args. Every failure is returned as an
// *ExitError carrying the process exit code.
func Execute(args []string, out, logW io.Writer) error {
	root := NewRootCommand(out, logW)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return &ExitError{Code: 1, Message: err.Error()}
	}
	return nil
}

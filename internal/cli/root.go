package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vk/nodeflowgo/internal/app"
	"github.com/vk/nodeflowgo/internal/ctxlog"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel  string
	logFormat string
}

// NewRootCommand builds the nodeflow command tree. Results and help go to
// outW; logs of one-shot commands go to stderr.
func NewRootCommand(outW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "nodeflow",
		Short: "Evaluate dataflow graphs and compile them to standalone C",
		Long: `nodeflow loads a graph of typed nodes connected by typed ports, evaluates it
incrementally, and lowers it into a self-contained stepping artifact.

Graph files may be HCL (.hcl), JSON (.json) or YAML (.yaml, .yml). A directory
loads every graph file inside it.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return g.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format: text or json.")

	root.AddCommand(
		newRunCommand(g),
		newCompileCommand(g),
		newOrderCommand(g),
		newConvertCommand(g),
		newEvalCommand(g),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	root := NewRootCommand(outW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (g *globalFlags) validate() error {
	switch g.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if g.logFormat != "text" && g.logFormat != "json" {
		return usageError("invalid log-format: must be 'text' or 'json'")
	}
	return nil
}

// commandContext returns the command's context carrying a logger that
// writes to the command's error stream.
func (g *globalFlags) commandContext(cmd *cobra.Command) (context.Context, *slog.Logger) {
	logger := app.NewLogger(g.logLevel, g.logFormat, cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxlog.WithLogger(ctx, logger), logger
}

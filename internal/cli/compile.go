package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/nodeflowgo/internal/app"
	"github.com/vk/nodeflowgo/internal/codegen"
	"github.com/vk/nodeflowgo/internal/config"
	"github.com/vk/nodeflowgo/internal/graph"
	"github.com/vk/nodeflowgo/internal/hcl"
)

func newCompileCommand(g *globalFlags) *cobra.Command {
	var (
		outDir   string
		base     string
		backends []string
	)
	cmd := &cobra.Command{
		Use:   "compile GRAPH",
		Short: "Generate the stepping artifact for a graph",
		Long: `compile lowers GRAPH into <base>_step.h and <base>_step.c (backend c), a
stdin-driven driver <base>_host.c (backend host), and a restricted LLVM IR
module <base>_step.ll (backend ir). Backends that cannot express the graph
are skipped.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.commandContext(cmd)
			bs, err := app.Backends(backends)
			if err != nil {
				return usageError("%v", err)
			}
			if base == "" {
				base = defaultBase(args[0])
			}

			doc, err := app.LoadDocument(ctx, args[0])
			if err != nil {
				return err
			}
			store, err := graph.Build(ctx, doc)
			if err != nil {
				return err
			}
			names, err := codegen.Generate(ctx, store, outDir, base, bs...)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(outDir, name))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory.")
	cmd.Flags().StringVar(&base, "base", "", "Artifact base name (default: graph file name).")
	cmd.Flags().StringSliceVar(&backends, "backends", []string{"c", "host", "ir"}, "Backends to run: c, host, ir.")
	return cmd
}

// defaultBase derives an artifact base name from a graph path.
func defaultBase(path string) string {
	name := filepath.Base(filepath.Clean(path))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "graph"
	}
	return name
}

func newOrderCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "order GRAPH",
		Short: "Print node ids in evaluation order",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.commandContext(cmd)
			doc, err := app.LoadDocument(ctx, args[0])
			if err != nil {
				return err
			}
			store, err := graph.Build(ctx, doc)
			if err != nil {
				return err
			}
			for _, i := range store.Order() {
				fmt.Fprintln(cmd.OutOrStdout(), store.Node(i).ID)
			}
			return nil
		},
	}
}

func newConvertCommand(g *globalFlags) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert GRAPH",
		Short: "Re-encode a graph document as hcl, json or yaml",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.commandContext(cmd)
			var write func(*cobra.Command, *config.Document) error
			switch to {
			case "json":
				write = func(c *cobra.Command, d *config.Document) error { return config.WriteJSON(c.OutOrStdout(), d) }
			case "yaml", "yml":
				write = func(c *cobra.Command, d *config.Document) error { return config.WriteYAML(c.OutOrStdout(), d) }
			case "hcl":
				write = func(c *cobra.Command, d *config.Document) error { return hcl.Write(c.OutOrStdout(), d) }
			default:
				return usageError("invalid --to %q: must be 'hcl', 'json' or 'yaml'", to)
			}
			doc, err := app.LoadDocument(ctx, args[0])
			if err != nil {
				return err
			}
			return write(cmd, doc)
		},
	}
	cmd.Flags().StringVar(&to, "to", "json", "Target format: hcl, json or yaml.")
	return cmd
}

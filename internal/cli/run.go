package cli

import (
	"github.com/spf13/cobra"
	"github.com/vk/nodeflowgo/internal/app"
)

// runFlags mirrors app.Config for the run command. Only flags the user
// set override the config file.
type runFlags struct {
	configFile string
	cfg        app.Config

	// start runs the resolved configuration.
	start func(cmd *cobra.Command, cfg *app.Config) error
}

func newRunCommand(g *globalFlags) *cobra.Command {
	return (&runFlags{cfg: app.DefaultConfig(), start: startApp}).command(g)
}

func startApp(cmd *cobra.Command, cfg *app.Config) error {
	a, err := app.NewApp(cmd.OutOrStdout(), cfg)
	if err != nil {
		return usageError("%v", err)
	}
	return a.Run(cmd.Context())
}

func (rf *runFlags) command(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [GRAPH]",
		Short: "Load a graph and drive it on a wall-clock tick",
		Long: `run loads GRAPH, evaluates it, and keeps advancing its timers in real time
until interrupted. It can reload the graph when the file changes, accept
control events from a socket.io hub, serve /health and /metrics, and
regenerate artifacts on every load.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.resolve(cmd, g, args)
			if err != nil {
				return err
			}
			return rf.start(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&rf.configFile, "config", "c", "", "YAML file with run settings; flags override it.")
	f.StringVarP(&rf.cfg.GraphPath, "graph", "g", "", "Graph file or directory (alternative to the GRAPH argument).")
	f.DurationVar(&rf.cfg.TickInterval, "tick-interval", rf.cfg.TickInterval, "Wall-clock period between timer ticks.")
	f.StringVar(&rf.cfg.Propagation, "propagation", rf.cfg.Propagation, "Which output changes wake dependents: all or primary.")
	f.BoolVar(&rf.cfg.Watch, "watch", false, "Reload the graph when its files change.")
	f.StringVar(&rf.cfg.Remote.URL, "remote-url", "", "socket.io hub URL for remote control.")
	f.StringVar(&rf.cfg.Remote.Namespace, "remote-namespace", "", "socket.io namespace on the hub.")
	f.BoolVar(&rf.cfg.Remote.InsecureSkipVerify, "insecure-skip-verify", false, "Skip TLS verification for the hub.")
	f.IntVar(&rf.cfg.HealthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	f.StringVar(&rf.cfg.MetricsAddr, "metrics-addr", "", "Address for /metrics and /health, e.g. :9090. Overrides --healthcheck-port.")
	f.StringVar(&rf.cfg.CodegenDir, "codegen-dir", "", "Regenerate artifacts into this directory after every load.")
	f.StringVar(&rf.cfg.CodegenBase, "codegen-base", rf.cfg.CodegenBase, "Base name of generated artifacts.")
	f.StringSliceVar(&rf.cfg.CodegenBackends, "backends", rf.cfg.CodegenBackends, "Codegen backends: c, host, ir.")
	return cmd
}

// resolve layers defaults, the config file, the flags the user set, and
// the positional graph path, then validates the result.
func (rf *runFlags) resolve(cmd *cobra.Command, g *globalFlags, args []string) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if rf.configFile != "" {
		if err := app.LoadConfigFile(rf.configFile, &cfg); err != nil {
			return nil, usageError("%v", err)
		}
	}

	changed := cmd.Flags().Changed
	overlay := map[string]func(){
		"graph":                func() { cfg.GraphPath = rf.cfg.GraphPath },
		"tick-interval":        func() { cfg.TickInterval = rf.cfg.TickInterval },
		"propagation":          func() { cfg.Propagation = rf.cfg.Propagation },
		"watch":                func() { cfg.Watch = rf.cfg.Watch },
		"remote-url":           func() { cfg.Remote.URL = rf.cfg.Remote.URL },
		"remote-namespace":     func() { cfg.Remote.Namespace = rf.cfg.Remote.Namespace },
		"insecure-skip-verify": func() { cfg.Remote.InsecureSkipVerify = rf.cfg.Remote.InsecureSkipVerify },
		"healthcheck-port":     func() { cfg.HealthcheckPort = rf.cfg.HealthcheckPort },
		"metrics-addr":         func() { cfg.MetricsAddr = rf.cfg.MetricsAddr },
		"codegen-dir":          func() { cfg.CodegenDir = rf.cfg.CodegenDir },
		"codegen-base":         func() { cfg.CodegenBase = rf.cfg.CodegenBase },
		"backends":             func() { cfg.CodegenBackends = rf.cfg.CodegenBackends },
	}
	for name, apply := range overlay {
		if changed(name) {
			apply()
		}
	}
	if changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = g.logLevel
	}
	if changed("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = g.logFormat
	}
	if len(args) > 0 {
		if cfg.GraphPath != "" && changed("graph") {
			return nil, usageError("graph given both as --graph and as an argument")
		}
		cfg.GraphPath = args[0]
	}
	if cfg.GraphPath == "" {
		return nil, usageError("no graph given: pass GRAPH, --graph, or graph: in the config file")
	}

	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError("%v", err)
	}
	return valid, nil
}

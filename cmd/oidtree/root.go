package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/oidtree"
	"github.com/aretw0/oidtree/internal/cli"
	"github.com/aretw0/oidtree/internal/config"
	"github.com/aretw0/oidtree/internal/presentation/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	cfgFile string
	debug   bool
	asJSON  bool

	v   = viper.New()
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "oidtree",
	Short: "Browse and extend a private OID registry",
	Long: `oidtree manages a hierarchical registry of object identifiers.
Browse the tree, register new components with auto-assigned identifiers,
and generate FHIR, MCP, X.509, API, database and QR snippets for any node.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if isTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout(), oidtree.Version)
		}
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default .oidtree/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging and lifecycle traces")
	pf.BoolVar(&asJSON, "json", false, "Print machine-readable JSON")
	pf.String("store", "", "Store driver: memory, file, redis or sqlite")
	pf.String("store-path", "", "Registry directory (file) or database file (sqlite)")
	pf.String("redis-url", "", "Redis URL for the redis driver")
	pf.String("key", "", "Registry key inside the store")

	_ = v.BindPFlag("store.driver", pf.Lookup("store"))
	_ = v.BindPFlag("store.path", pf.Lookup("store-path"))
	_ = v.BindPFlag("store.redis.url", pf.Lookup("redis-url"))
	_ = v.BindPFlag("key", pf.Lookup("key"))
}

// openRegistry opens the configured registry for one command.
func openRegistry(ctx context.Context, opts cli.Options) (*oidtree.Registry, error) {
	opts.Debug = debug
	if opts.Logger == nil {
		opts.Logger = logger()
	}
	return cli.OpenRegistry(ctx, cfg, opts)
}

func logger() *slog.Logger {
	return cli.NewLogger(cfg.Log, debug)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

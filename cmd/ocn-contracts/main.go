package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ocn-network/ocn-common-go/internal/config"
	"github.com/ocn-network/ocn-common-go/schema"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, statusErrorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands
type app struct {
	configPath  string
	root        string
	verbose     bool
	showMetrics bool

	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	cache     *schema.ValidatorCache
	validator *schema.ContractValidator
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ocn-contracts",
		Short: "Validate OCN mandates and CloudEvents against their schemas",
		Long: `ocn-contracts checks AP2 mandate payloads and OCN CloudEvents against the
JSON Schema documents kept under common/, lists the available schemas and
registered event types, and generates trace IDs.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.showMetrics {
				printMetrics(cmd.ErrOrStderr(), a.registry)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&a.root, "root", "r", "", "Directory containing common/ (overrides config and $"+config.EnvCommonRoot+")")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "Print schema cache metrics to stderr when done")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newErrorsCmd(a),
		newListCmd(a),
		newTypesCmd(a),
		newCheckCmd(a),
		newTraceCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.root != "" {
		cfg.Schemas.Root = a.root
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.showMetrics {
		cfg.Metrics.Enabled = true
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())

	storeOpts := []schema.StoreOption{schema.WithStoreLogger(a.logger)}
	if cfg.Schemas.Root != "" {
		storeOpts = append(storeOpts, schema.WithBasePath(cfg.Schemas.Root))
	}
	cacheOpts := []schema.CacheOption{schema.WithCacheLogger(a.logger)}
	contractOpts := []schema.ContractOption{schema.WithLogger(a.logger)}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		metrics := schema.NewMetrics(a.registry)
		storeOpts = append(storeOpts, schema.WithStoreMetrics(metrics))
		cacheOpts = append(cacheOpts, schema.WithCacheMetrics(metrics))
		contractOpts = append(contractOpts, schema.WithMetrics(metrics))
	}

	store := schema.NewStore(storeOpts...)
	a.logger.Debug("schema store ready", "base_path", store.BasePath())
	a.cache = schema.NewValidatorCache(store, cacheOpts...)
	a.validator = schema.NewContractValidator(a.cache, nil, contractOpts...)
	return nil
}

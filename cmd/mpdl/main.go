package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/therandomlabs/mpdl/internal/config"
	"github.com/therandomlabs/mpdl/internal/index"
	"github.com/therandomlabs/mpdl/internal/manifest"
	"github.com/therandomlabs/mpdl/internal/mpdl"
	"github.com/therandomlabs/mpdl/internal/pack"
	"github.com/therandomlabs/mpdl/internal/resolver"
	"github.com/therandomlabs/mpdl/internal/source"
)

var (
	configPath    string
	outputPath    string
	resolveOutput string
	threads       int
	noResolve     bool
	verbose       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "mpdl",
		Short:        "Modpack definition compiler",
		Long:         "mpdl compiles modpack definitions into manifests and resolves the latest eligible file of every mod through CurseForge.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yml, .yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	compileCmd := &cobra.Command{
		Use:   "compile <definition>",
		Short: "Compile a definition into a manifest",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	compileCmd.Flags().StringVarP(&outputPath, "output", "o", "manifest.json", "Output manifest path, - for stdout")
	compileCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Parallel index lookups (overrides config)")
	compileCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "Leave latest-file mods unresolved")

	checkCmd := &cobra.Command{
		Use:   "check <definition>",
		Short: "Compile a definition and print a summary without resolving",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Resolve the latest-file mods of a compiled manifest",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Output manifest path, - for stdout (default: overwrite input)")
	resolveCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Parallel index lookups (overrides config)")

	rootCmd.AddCommand(compileCmd, checkCmd, resolveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "mpdl",
		Level:  level,
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if threads > 0 {
		cfg.Threads = threads
	}
	return cfg, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := compileDefinition(cmd.Context(), args[0], cfg, logger)
	if err != nil {
		return err
	}
	if !noResolve {
		if err := resolveManifest(cmd.Context(), m, cfg, logger); err != nil {
			return err
		}
	}

	if err := writeManifest(m, outputPath); err != nil {
		return err
	}
	logger.Info("generated manifest", "path", outputPath, "mods", m.ModCount(), "files", len(m.Files))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := compileDefinition(cmd.Context(), args[0], cfg, logger)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), mpdl.DefaultRegistry(), m)
	return nil
}

// printSummary writes the variables of m in registration order followed by
// the entry counts.
func printSummary(w io.Writer, registry *mpdl.Registry, m *pack.Manifest) {
	for _, name := range registry.Names() {
		fmt.Fprintf(w, "%s = %s\n", name, m.Variables[name])
	}
	fmt.Fprintf(w, "%d mods, %d server mods, %d alternatives, %d files, %d groups, %d postprocessors applied\n",
		len(m.Mods), len(m.ServerMods), len(m.Alternatives), len(m.Files), len(m.Groups), len(m.Postprocessors))
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := readManifest(args[0])
	if err != nil {
		return err
	}
	if err := resolveManifest(cmd.Context(), m, cfg, logger); err != nil {
		return err
	}

	out := resolveOutput
	if out == "" {
		out = args[0]
	}
	if err := writeManifest(m, out); err != nil {
		return err
	}
	logger.Info("resolved manifest", "path", out, "mods", m.ModCount())
	return nil
}

// compileDefinition compiles the definition at path. Imported paths are
// relative to the definition's directory.
func compileDefinition(ctx context.Context, path string, cfg *config.Config, logger *log.Logger) (*pack.Manifest, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	presets := mpdl.DefaultPresets()
	maps.Copy(presets, cfg.Presets)

	client := &http.Client{Timeout: cfg.Timeout}
	loader := source.NewLoader(client, osfs.New(dir), logger)
	compiler := mpdl.NewCompiler(nil, loader, mpdl.WithPresets(presets), mpdl.WithLogger(logger))

	logger.Debug("compiling definition", "path", path)
	m, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", path, err)
	}
	return m, nil
}

func resolveManifest(ctx context.Context, m *pack.Manifest, cfg *config.Config, logger *log.Logger) error {
	opts := cfg.IndexOptions()
	opts.Client = &http.Client{Timeout: cfg.Timeout}

	r := resolver.NewResolver(index.NewCurseForge(opts), cfg.Threads, logger)
	r.OnNoFiles = func(e pack.ModEntry) {
		logger.Warn("no matching files, mod dropped", "project", e.ProjectID, "minecraft", m.Variables[mpdl.VarMinecraft])
	}

	result, err := r.Resolve(ctx, m)
	if err != nil {
		return fmt.Errorf("resolving mods: %w", err)
	}
	logger.Info("resolved mods", "resolved", result.Resolved, "dropped", len(result.Dropped))
	return nil
}

func readManifest(path string) (*pack.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := manifest.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func writeManifest(m *pack.Manifest, path string) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating manifest file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := manifest.NewEmitter(w).Emit(m); err != nil {
		return err
	}
	return nil
}

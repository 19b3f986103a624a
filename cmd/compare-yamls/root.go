package main

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/psbr27/compare-yamls/pkg/diff"
	"github.com/psbr27/compare-yamls/pkg/merge"
	"github.com/psbr27/compare-yamls/pkg/tree"
	yamlcmp "github.com/psbr27/compare-yamls/pkg/yaml"
)

// version is overridden at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

type options struct {
	output         string
	report         string
	reportFormat   string
	listStrategy   string
	deletionPolicy string
	overrides      []string
	values         []string
	showUnchanged  bool
	noColor        bool
	verify         bool
	logLevel       string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "compare-yamls SOURCE TARGET",
		Short: "Merge two YAML documents with configurable strategies and report the differences",
		Long: `compare-yamls merges the SOURCE document over the TARGET document. Source
values win on conflicts; sequences are combined per the list strategy
(replace, append or intelligent) and target-only keys follow the deletion
policy (ignore or remove). Both can be overridden below dotted key-path
prefixes. Every decision is recorded and rendered as a diff report.`,
		Args:          cobra.ExactArgs(2),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	// accept underscores in flag names, e.g. --list_strategy
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	flags.StringVarP(&opts.output, "output", "o", "-", "path for the merged document (\"-\" for stdout)")
	flags.StringVar(&opts.report, "report", "", "path for the diff report (\"-\" for stdout, empty to skip)")
	flags.StringVar(&opts.reportFormat, "report-format", "text", "diff report format: text or structured")
	flags.StringVar(&opts.listStrategy, "list-strategy", string(merge.ListReplace), "list merge strategy: replace, append or intelligent")
	flags.StringVar(&opts.deletionPolicy, "deletion-policy", string(merge.DeletionIgnore), "target-only key handling: ignore or remove")
	flags.StringArrayVar(&opts.overrides, "override", nil, "per-path override, e.g. \"spec.users=list=intelligent,deletions=remove\" (repeatable)")
	flags.StringArrayVarP(&opts.values, "values", "f", nil, "extra YAML overlays deep-merged over SOURCE before merging (repeatable)")
	flags.BoolVar(&opts.showUnchanged, "show-unchanged", false, "include unchanged keys in the report")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colors in the text report")
	flags.BoolVar(&opts.verify, "verify", false, "replay the recorded changes over TARGET and check they reproduce the merged document")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	return cmd
}

func run(cmd *cobra.Command, opts *options, sourcePath, targetPath string) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}

	source, err := tree.FromFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source %s: %w", sourcePath, err)
	}
	target, err := tree.FromFile(targetPath)
	if err != nil {
		return fmt.Errorf("reading target %s: %w", targetPath, err)
	}

	if len(opts.values) > 0 {
		source, err = overlayValues(source, opts.values)
		if err != nil {
			return err
		}
		logger.Debug("applied overlays over source", zap.Int("count", len(opts.values)))
	}

	merged, records, err := merge.Merge(source, target, cfg)
	if err != nil {
		return err
	}

	summary := diff.Summary(records)
	logger.Info("merge completed",
		zap.Int("added", summary[diff.Added]),
		zap.Int("removed", summary[diff.Removed]),
		zap.Int("changed", summary[diff.Changed]),
		zap.Int("lists-merged", summary[diff.ListMerged]),
	)

	mergedYAML, err := merged.ToYAML()
	if err != nil {
		return err
	}

	if opts.verify {
		if err := verifyReplay(target, records, cfg, mergedYAML); err != nil {
			return err
		}
		logger.Debug("replay verification passed")
	}

	if err := writeOutput(cmd, opts.output, mergedYAML); err != nil {
		return err
	}

	if opts.report != "" {
		format := diff.Format(opts.reportFormat)
		if format == "json" {
			format = diff.Structured
		}
		rendered, err := diff.Render(records, format,
			diff.WithKept(opts.showUnchanged),
			diff.WithColor(!opts.noColor && opts.report == "-"),
		)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, opts.report, []byte(rendered)); err != nil {
			return err
		}
	}
	return nil
}

func buildConfig(opts *options) (merge.Config, error) {
	cfg := merge.Config{
		ListStrategy:   merge.ListStrategy(opts.listStrategy),
		DeletionPolicy: merge.DeletionPolicy(opts.deletionPolicy),
		RecordKept:     opts.showUnchanged,
	}
	for _, spec := range opts.overrides {
		path, override, err := parseOverride(spec)
		if err != nil {
			return merge.Config{}, err
		}
		if cfg.Overrides == nil {
			cfg.Overrides = map[string]merge.Override{}
		}
		cfg.Overrides[path] = override
	}
	return cfg, cfg.Validate()
}

// parseOverride parses "path=list=<strategy>[,deletions=<policy>]".
func parseOverride(spec string) (string, merge.Override, error) {
	path, settings, ok := strings.Cut(spec, "=")
	if !ok || path == "" {
		return "", merge.Override{}, fmt.Errorf("malformed override %q (want path=list=<strategy>[,deletions=<policy>])", spec)
	}
	var o merge.Override
	for _, part := range strings.Split(settings, ",") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", merge.Override{}, fmt.Errorf("malformed override setting %q in %q", part, spec)
		}
		switch name {
		case "list":
			o.ListStrategy = merge.ListStrategy(value)
		case "deletions":
			o.DeletionPolicy = merge.DeletionPolicy(value)
		default:
			return "", merge.Override{}, fmt.Errorf("unknown override setting %q in %q (valid: list, deletions)", name, spec)
		}
	}
	return path, o, nil
}

// overlayValues deep-merges extra YAML files over the source document, later
// files winning. Mapping order is rebuilt sorted, since the overlay merge
// operates on plain maps.
func overlayValues(source *tree.Node, files []string) (*tree.Node, error) {
	base, ok := source.Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("source must be a mapping to apply overlays, got %s", source.Kind)
	}
	for _, file := range files {
		overlay, err := tree.FromFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading overlay %s: %w", file, err)
		}
		om, ok := overlay.Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("overlay %s must be a mapping, got %s", file, overlay.Kind)
		}
		if err := mergo.MergeWithOverwrite(&base, om); err != nil {
			return nil, fmt.Errorf("overlay %s: %w", file, err)
		}
	}
	return tree.FromValue(base)
}

// verifyReplay checks the replay property on the just-computed merge.
func verifyReplay(target *tree.Node, records []diff.Record, cfg merge.Config, mergedYAML []byte) error {
	replayed, err := merge.Replay(target, records, cfg)
	if err != nil {
		return fmt.Errorf("replay verification: %w", err)
	}
	replayedYAML, err := replayed.ToYAML()
	if err != nil {
		return fmt.Errorf("replay verification: %w", err)
	}
	equal, err := yamlcmp.EqualYAMLs(mergedYAML, replayedYAML)
	if err != nil {
		return fmt.Errorf("replay verification: %w", err)
	}
	if !equal {
		return fmt.Errorf("replay verification failed:\n%s", yamlcmp.DiffYAML(mergedYAML, replayedYAML))
	}
	return nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

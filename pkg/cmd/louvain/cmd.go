package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/gilchrisn/louvain-hierarchy/pkg/louvain"
	"github.com/gilchrisn/louvain-hierarchy/pkg/metrics"
	"github.com/gilchrisn/louvain-hierarchy/pkg/parser"
	"github.com/gilchrisn/louvain-hierarchy/pkg/utils"
	"github.com/gilchrisn/louvain-hierarchy/pkg/validation"
)

var louvainExample = `# detect communities and print the outline
%[1]s graph.txt

# also write mapping, hierarchy, root and summary files to ./out
%[1]s graph.txt --output-dir=out --prefix=communities --summary-format=yaml

# log every local move and export metrics for the node exporter
%[1]s graph.txt --track-moves --moves-file=moves.jsonl --metrics-file=louvain.prom
`

// verifyTolerance bounds the difference between the engine's modularity and
// the one recomputed with gonum
const verifyTolerance = 1e-9

type LouvainFlags struct {
	ConfigFile    string
	LogLevel      string
	LogFormat     string
	Quiet         bool
	OutputDir     string
	Prefix        string
	SummaryFormat string
	TrackMoves    bool
	MovesFile     string
	MetricsFile   string
	Verify        bool
}

type LouvainOpts struct {
	Input      string
	ConfigFile string
	Verify     bool

	Config *louvain.Config

	Out    io.Writer
	ErrOut io.Writer
}

func (f *LouvainFlags) ToOptions(cmd *cobra.Command, args []string, out, errout io.Writer) (*LouvainOpts, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one edge list file, got %d arguments", len(args))
	}

	config := louvain.NewConfig()
	v := config.Viper()
	bindings := map[string]string{
		"logging.level":         "log-level",
		"logging.format":        "log-format",
		"output.dir":            "output-dir",
		"output.prefix":         "prefix",
		"output.summary_format": "summary-format",
		"analysis.track_moves":  "track-moves",
		"analysis.output_file":  "moves-file",
		"metrics.textfile":      "metrics-file",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	config.SetLogOutput(errout)
	if f.Quiet {
		config.Set("logging.enable_progress", false)
	}

	return &LouvainOpts{
		Input:      args[0],
		ConfigFile: f.ConfigFile,
		Verify:     f.Verify,
		Config:     config,
		Out:        out,
		ErrOut:     errout,
	}, nil
}

func NewCmdLouvain(name string, out, errout io.Writer) *cobra.Command {
	flags := &LouvainFlags{
		LogLevel:      "info",
		LogFormat:     "console",
		Prefix:        "communities",
		SummaryFormat: "json",
		MovesFile:     "moves.jsonl",
	}

	cmd := &cobra.Command{
		Use:          name + " EDGE_LIST",
		Short:        "Detects hierarchical communities with the Louvain method",
		Long:         "Reads a weighted edge list (\"i j [weight]\" per line), maximizes modularity with the Louvain method and reports the community hierarchy",
		Example:      fmt.Sprintf(louvainExample, name),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := flags.ToOptions(c, args, out, errout)
			if err != nil {
				return err
			}

			if err := opts.Complete(); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return opts.Run(c.Context())
		},
	}

	cmd.SetOut(out)
	cmd.SetErr(errout)

	cmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", flags.ConfigFile, "configuration file (yaml, json or toml).")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level. One of: trace, debug, info, warn, error, disabled.")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "log format. One of: console, json.")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", flags.Quiet, "only log warnings and errors.")
	cmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "o", flags.OutputDir, "directory for the mapping, hierarchy, root, assignment and summary files. Nothing is written when empty.")
	cmd.Flags().StringVar(&flags.Prefix, "prefix", flags.Prefix, "file name prefix of the output files.")
	cmd.Flags().StringVar(&flags.SummaryFormat, "summary-format", flags.SummaryFormat, "summary file format. One of: json, yaml.")
	cmd.Flags().BoolVar(&flags.TrackMoves, "track-moves", flags.TrackMoves, "log every accepted local move as a JSON line.")
	cmd.Flags().StringVar(&flags.MovesFile, "moves-file", flags.MovesFile, "file receiving the move log when --track-moves is set.")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", flags.MetricsFile, "write Prometheus metrics in text format to this file.")
	cmd.Flags().BoolVar(&flags.Verify, "verify", flags.Verify, "recompute the final modularity with gonum and fail on mismatch.")
	return cmd
}

func (o *LouvainOpts) Complete() error {
	if o.ConfigFile != "" {
		if err := o.Config.LoadFromFile(o.ConfigFile); err != nil {
			return err
		}
	}
	if o.Config.RunID() == "" {
		o.Config.Set("run.id", uuid.NewString())
	}
	return nil
}

func (o *LouvainOpts) Validate() error {
	if o.Input == "" {
		return errors.New("an edge list file is required")
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateInputFile(o.Input); err != nil {
		return err
	}
	if dir := o.Config.OutputDir(); dir != "" {
		return validation.ValidateOutputDirectory(dir)
	}
	return nil
}

func (o *LouvainOpts) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := o.Config.CreateLogger().With().Str("run_id", o.Config.RunID()).Logger()

	graph, err := parser.LoadGraph(o.Input)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	runOpts := []louvain.Option{louvain.WithPassObserver(registry)}

	var tracker *utils.MoveTracker
	if o.Config.EnableMoveTracking() {
		tracker, err = utils.NewMoveTracker(o.Config.TrackingOutputFile(), o.Config.RunID())
		if err != nil {
			return err
		}
		defer tracker.Close()
		runOpts = append(runOpts, louvain.WithMoveObserver(tracker))
	}

	start := time.Now()
	result, err := louvain.Run(ctx, graph, o.Config, runOpts...)
	elapsed := time.Since(start)
	registry.RecordRun(result, elapsed)
	if err != nil {
		_ = o.writeMetrics(registry, logger)
		return err
	}

	if err := louvain.WriteOutline(o.Out, result); err != nil {
		return err
	}
	fmt.Fprintln(o.Out, "Completed")
	fmt.Fprintf(o.Out, "Time: %g s\n", elapsed.Seconds())

	if o.Verify {
		if err := o.verify(graph, result); err != nil {
			return err
		}
	}

	if dir := o.Config.OutputDir(); dir != "" {
		writer := louvain.NewFileWriter()
		if err := writer.WriteAll(result, dir, o.Config.OutputPrefix(), o.Config.SummaryFormat()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logger.Info().Str("dir", dir).Str("prefix", o.Config.OutputPrefix()).Msg("Output written")
	}

	if tracker != nil {
		moves := tracker.Moves()
		if err := tracker.Close(); err != nil {
			return err
		}
		logger.Info().Int("moves", moves).Str("file", o.Config.TrackingOutputFile()).Msg("Move log written")
	}

	return o.writeMetrics(registry, logger)
}

func (o *LouvainOpts) verify(graph *louvain.Graph, result *louvain.Result) error {
	if err := validation.ValidatePartition(graph.NumNodes(), result.Communities); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	q, err := louvain.GonumModularity(graph, result.Communities)
	if errors.Is(err, louvain.ErrSelfLoops) {
		fmt.Fprintln(o.Out, "Verify: skipped, graph has self-loops")
		return nil
	}
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if !scalar.EqualWithinAbsOrRel(q, result.Modularity, verifyTolerance, verifyTolerance) {
		return fmt.Errorf("modularity mismatch: engine %g, gonum %g", result.Modularity, q)
	}
	fmt.Fprintf(o.Out, "Verify: gonum Q %g\n", q)
	return nil
}

func (o *LouvainOpts) writeMetrics(registry *metrics.Registry, logger zerolog.Logger) error {
	path := o.Config.MetricsTextfile()
	if path == "" {
		return nil
	}
	if err := registry.WriteTextfile(path); err != nil {
		return err
	}
	logger.Info().Str("file", path).Msg("Metrics written")
	return nil
}

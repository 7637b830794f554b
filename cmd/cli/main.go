package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"bmcount/adapters/excel"
	"bmcount/adapters/postgres"
	"bmcount/app"
	"bmcount/domain/brunnermunzel"
	"bmcount/domain/countdata"
	"bmcount/internal"
	"bmcount/internal/config"
	"bmcount/ports"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bmcount",
		Short:         "Brunner-Munzel tests on count-aggregated data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newTestCmd(),
		newRankCmd(),
		newJoinCmd(),
	)
	return rootCmd
}

// sourceFlags select where groups are loaded from
type sourceFlags struct {
	input string
	xFile string
	yFile string
	sqlX  string
	sqlY  string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "Count table (.xlsx or .csv) with group,value,count columns")
	cmd.Flags().StringVar(&f.xFile, "x", "", "Count table whose rows form sample x")
	cmd.Flags().StringVar(&f.yFile, "y", "", "Count table whose rows form sample y")
	cmd.Flags().StringVar(&f.sqlX, "sql-x", "", "SQL query returning value,count rows for sample x (uses DATABASE_URL)")
	cmd.Flags().StringVar(&f.sqlY, "sql-y", "", "SQL query returning value,count rows for sample y (uses DATABASE_URL)")
}

// open returns the configured source and a cleanup function.
func (f *sourceFlags) open(ctx context.Context, cfg *config.Config, logger *internal.Logger) (ports.CountSource, func(), error) {
	switch {
	case f.input != "":
		return excel.NewTableSource(f.input, logger), func() {}, nil

	case f.xFile != "" || f.yFile != "":
		if f.xFile == "" || f.yFile == "" {
			return nil, nil, fmt.Errorf("--x and --y must be given together")
		}
		counts := make(map[string]countdata.CountMap[float64], 2)
		for group, path := range map[string]string{"x": f.xFile, "y": f.yFile} {
			table, err := excel.NewTableReader(path, logger).Read()
			if err != nil {
				return nil, nil, err
			}
			counts[group] = table.Joined()
		}
		return app.NewStaticSource([]string{"x", "y"}, counts), func() {}, nil

	case f.sqlX != "" || f.sqlY != "":
		if !cfg.Database.Enabled {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for SQL sources")
		}
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		queries := map[string]string{}
		if f.sqlX != "" {
			queries["x"] = f.sqlX
		}
		if f.sqlY != "" {
			queries["y"] = f.sqlY
		}
		return postgres.NewCountSource(db, queries), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("one of --input, --x/--y or --sql-x/--sql-y is required")
}

func setup() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel), os.Stderr), nil
}

func newTestCmd() *cobra.Command {
	var (
		src                                  sourceFlags
		pairs                                []string
		alternative, distribution, nanPolicy string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the Brunner-Munzel test on two or more groups",
		Long: `Run the Brunner-Munzel test on count data.

Each --pair names two groups as x:y. Without --pair the first two groups
of the source are compared.

Example: bmcount test --input survey.xlsx --pair control:treatment --alternative less`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			opts, err := brunnermunzel.ParseOverrides(alternative, distribution, nanPolicy)
			if err != nil {
				return err
			}

			source, closeSource, err := src.open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeSource()

			service := app.NewComparisonService(cfg.Test.Options, cfg.Test.BatchConcurrency, logger)
			return runTest(cmd.Context(), cmd.OutOrStdout(), service, source, pairs, opts)
		},
	}

	src.register(cmd)
	cmd.Flags().StringArrayVar(&pairs, "pair", nil, "Groups to compare as x:y (repeatable)")
	cmd.Flags().StringVar(&alternative, "alternative", "", "two-sided, less or greater (default from BM_ALTERNATIVE)")
	cmd.Flags().StringVar(&distribution, "distribution", "", "t or normal (default from BM_DISTRIBUTION)")
	cmd.Flags().StringVar(&nanPolicy, "nan-policy", "", "propagate, raise or omit (default from BM_NAN_POLICY)")

	return cmd
}

type testOutput struct {
	Name         string   `json:"name"`
	Statistic    *float64 `json:"statistic"`
	PValue       *float64 `json:"pvalue"`
	DF           *float64 `json:"df"`
	NX           int      `json:"nx"`
	NY           int      `json:"ny"`
	Alternative  string   `json:"alternative"`
	Distribution string   `json:"distribution"`
	NaNPolicy    string   `json:"nan_policy"`
	Error        string   `json:"error,omitempty"`
}

func runTest(ctx context.Context, out io.Writer, service *app.ComparisonService, source ports.CountSource, pairs []string, opts brunnermunzel.Options) error {
	if len(pairs) == 0 {
		groups, err := source.Groups(ctx)
		if err != nil {
			return err
		}
		if len(groups) < 2 {
			return fmt.Errorf("need at least two groups to compare, found %v", groups)
		}
		pairs = []string{groups[0] + ":" + groups[1]}
	}

	comparisons := make([]app.Comparison, 0, len(pairs))
	for _, pair := range pairs {
		xGroup, yGroup, ok := strings.Cut(pair, ":")
		if !ok || xGroup == "" || yGroup == "" {
			return fmt.Errorf("invalid pair %q, expected x:y", pair)
		}
		x, err := source.LoadCounts(ctx, xGroup)
		if err != nil {
			return err
		}
		y, err := source.LoadCounts(ctx, yGroup)
		if err != nil {
			return err
		}
		comparisons = append(comparisons, app.Comparison{Name: pair, X: x, Y: y, Options: opts})
	}

	results, err := service.CompareBatch(ctx, comparisons)
	if err != nil {
		return err
	}

	outputs := make([]testOutput, len(results))
	failed := 0
	for i, r := range results {
		outputs[i] = testOutput{
			Name:         r.Name,
			Statistic:    finite(r.Result.Statistic),
			PValue:       finite(r.Result.PValue),
			DF:           finite(r.Result.DF),
			NX:           r.NX,
			NY:           r.NY,
			Alternative:  string(r.Options.Alternative),
			Distribution: string(r.Options.Distribution),
			NaNPolicy:    string(r.Options.NaNPolicy),
		}
		if r.Err != nil {
			outputs[i].Statistic, outputs[i].PValue, outputs[i].DF = nil, nil, nil
			outputs[i].Error = r.Err.Error()
			failed++
		}
	}

	if err := writeJSON(out, outputs); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d comparisons failed", failed, len(results))
	}
	return nil
}

func newRankCmd() *cobra.Command {
	var (
		src    sourceFlags
		group  string
		method string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Assign average ranks to the values of one group",
		Long: `Assign average ranks to the distinct values of one group.

Example: bmcount rank --input survey.csv --group control`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			rankMethod, err := countdata.ParseRankMethod(method)
			if err != nil {
				return err
			}
			source, closeSource, err := src.open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeSource()

			counts, err := source.LoadCounts(cmd.Context(), group)
			if err != nil {
				return err
			}
			ranks, err := countdata.Rank(counts, rankMethod)
			if err != nil {
				return err
			}
			values, byValue := countdata.FormatRanks(ranks)
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"group":  group,
				"values": values,
				"ranks":  byValue,
			})
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&group, "group", excel.DefaultGroup, "Group to rank")
	cmd.Flags().StringVar(&method, "method", string(countdata.RankAverage), "Tie handling method (average)")

	return cmd
}

func newJoinCmd() *cobra.Command {
	var (
		src    sourceFlags
		groups []string
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Merge the counts of several groups",
		Long: `Merge the Count Maps of the given groups, or of every group when none is named.

Example: bmcount join --input survey.xlsx --group control --group treatment`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			source, closeSource, err := src.open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeSource()

			return runJoin(cmd.Context(), cmd.OutOrStdout(), source, groups)
		},
	}

	src.register(cmd)
	cmd.Flags().StringArrayVar(&groups, "group", nil, "Group to include (repeatable)")

	return cmd
}

func runJoin(ctx context.Context, out io.Writer, source ports.CountSource, groups []string) error {
	if len(groups) == 0 {
		var err error
		if groups, err = source.Groups(ctx); err != nil {
			return err
		}
	}

	maps := make([]countdata.CountMap[float64], 0, len(groups))
	for _, g := range groups {
		counts, err := source.LoadCounts(ctx, g)
		if err != nil {
			return err
		}
		maps = append(maps, counts)
	}

	joined := countdata.Join(maps...)
	return writeJSON(out, map[string]interface{}{
		"groups": groups,
		"counts": countdata.FormatKeys(joined),
		"size":   countdata.Size(joined),
	})
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// finite maps NaN and infinities to nil, as JSON has no encoding for them.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Command dashctl renders the dashboard offline from a listings CSV.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/export"
	"ecommerce-dashboard/internal/services"
)

const loadTimeout = 30 * time.Second

type options struct {
	seasons []string
	all     bool
	pretty  bool
	out     string
	kind    string
	width   int
	height  int
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "dashctl",
		Short: "Render the e-commerce dashboard from a CSV file",
		Long: `dashctl loads a listings CSV and produces the same charts as the web
dashboard: season lists, chart JSON, PNG images and XLSX workbooks.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)

	selectionFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringArrayVarP(&opts.seasons, "season", "s", nil, "Season to include (repeatable)")
		cmd.Flags().BoolVar(&opts.all, "all", false, "Include every season")
	}

	seasonsCmd := &cobra.Command{
		Use:   "seasons [input.csv]",
		Short: "List the seasons in first-seen order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, s := range store.Seasons() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	renderCmd := &cobra.Command{
		Use:   "render [input.csv]",
		Short: "Print the dashboard charts as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, selection, err := prepare(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			dash := views.Render(cmd.Context(), selection)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if opts.pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(dash); err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			return nil
		},
	}
	selectionFlags(renderCmd)
	renderCmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")

	pngCmd := &cobra.Command{
		Use:   "png [input.csv]",
		Short: "Render one chart as a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := charts.ParseKind(opts.kind)
			if !ok {
				return fmt.Errorf("invalid kind: %s (must be one of %v)", opts.kind, charts.Kinds)
			}
			views, selection, err := prepare(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			chart, _ := views.Render(cmd.Context(), selection).Chart(kind)

			return writeOutput(cmd.OutOrStdout(), opts.out, func(w io.Writer) error {
				return charts.RenderPNG(w, chart, opts.width, opts.height)
			})
		},
	}
	selectionFlags(pngCmd)
	pngCmd.Flags().StringVarP(&opts.kind, "kind", "k", string(charts.KindBar), "Chart kind: bar, scatter, histogram or pie")
	pngCmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file path (default: stdout)")
	pngCmd.Flags().IntVar(&opts.width, "width", charts.DefaultWidth, "Image width in pixels")
	pngCmd.Flags().IntVar(&opts.height, "height", charts.DefaultHeight, "Image height in pixels")

	exportCmd := &cobra.Command{
		Use:   "export [input.csv]",
		Short: "Write the filtered rows and chart summaries to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, selection, err := prepare(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			rows := views.Filter(selection)
			dash := views.Render(cmd.Context(), selection)

			return writeOutput(cmd.OutOrStdout(), opts.out, func(w io.Writer) error {
				return export.WriteWorkbook(w, rows, dash)
			})
		},
	}
	selectionFlags(exportCmd)
	exportCmd.Flags().StringVarP(&opts.out, "out", "o", "dashboard.xlsx", "Output file path")

	rootCmd.AddCommand(seasonsCmd, renderCmd, pngCmd, exportCmd)
	return rootCmd
}

func loadStore(ctx context.Context, path string) (*services.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := services.NewStore(services.WithLogger(logger))
	if err := store.Load(ctx, path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return store, nil
}

// prepare loads the table and resolves the selection. Without --season or
// --all the default selection applies, as on the web page.
func prepare(ctx context.Context, path string, opts *options) (*services.ViewBuilder, []string, error) {
	store, err := loadStore(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	selection := opts.seasons
	switch {
	case opts.all:
		selection = store.Seasons()
	case len(selection) == 0:
		selection = store.DefaultSelection()
	}
	return services.NewViewBuilder(store, nil), selection, nil
}

func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

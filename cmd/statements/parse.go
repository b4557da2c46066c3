package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/export"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-statements/pkg/config"
)

type parseOptions struct {
	format    string
	out       string
	noML      bool
	threshold float64
	workers   int
	quiet     bool
}

func parseCmd() *cobra.Command {
	opts := &parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse <statement.pdf>",
		Short: "Parse one statement and write its transactions",
		Example: `  statements parse icici-march.pdf
  statements parse icici-march.pdf --format csv --out march.csv
  statements parse icici-march.pdf --no-ml --format xlsx --out march.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format (json, csv, xlsx)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.noML, "no-ml", false, "use keyword rules only")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", -1, "confidence needed to prefer feature scoring over rules")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "enrichment workers per page (default: CPU count)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func (o *parseOptions) apply(cfg *config.Config) error {
	if o.noML {
		cfg.Pipeline.UseML = false
	}
	if o.threshold >= 0 {
		cfg.Pipeline.ConfidenceThreshold = o.threshold
	}
	if o.workers > 0 {
		cfg.Pipeline.Workers = o.workers
	}
	// The CLI has no HTTP surface to meter.
	cfg.Observability.MetricsEnabled = false
	return cfg.Validate()
}

func runParse(cmd *cobra.Command, path string, opts *parseOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if format == export.FormatXLSX && opts.out == "" {
		return errors.New("xlsx output needs --out")
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	deps, err := InitDependencies(cfg, log)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read statement: %w", err)
	}

	var progress parser.ProgressFunc
	if !opts.quiet {
		bar := progressbar.NewOptions(100,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Parsing "+filepath.Base(path)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		name := filepath.Base(path)
		progress = func(percent int, message string) {
			if message != "" {
				bar.Describe(fmt.Sprintf("Parsing %s (%s)", name, message))
			}
			_ = bar.Set(percent)
		}
	}

	res, err := deps.StatementService.Process(cmd.Context(), data, filepath.Base(path), progress)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn("statement warning", "warning", w)
	}
	if res.NoAdapter() {
		return res.Err()
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := export.Write(w, format, &res.Result); err != nil {
		return err
	}

	if opts.out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d transactions from %s written to %s\n",
			res.Bank, len(res.Transactions), filepath.Base(path), strings.TrimSpace(opts.out))
	}
	return nil
}

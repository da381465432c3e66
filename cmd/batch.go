package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/address-classifier/internal/config"
	"github.com/sells-group/address-classifier/internal/model"
)

var (
	batchCSV         string
	batchOutput      string
	batchConcurrency int
	batchRPS         float64
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify every address in a CSV file",
	Long: `Reads addresses from a CSV file and writes one result row per address.

The address is taken from a column named "address" when the first row is a
header containing one, otherwise from the first column of every row.

Examples:
  address-classifier batch --csv leads.csv --output classified.csv
  address-classifier batch --csv leads.csv --concurrency 8 --rps 10`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("concurrency") {
			cfg.Batch.Concurrency = batchConcurrency
		}
		if cmd.Flags().Changed("rps") {
			cfg.Batch.RPS = batchRPS
		}

		in, err := os.Open(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch: open csv")
		}
		defer in.Close() //nolint:errcheck

		addresses, err := readAddresses(in)
		if err != nil {
			return err
		}
		zap.L().Info("parsed csv", zap.Int("addresses", len(addresses)))

		env, err := initClassifier(ctx, config.ModeBatch)
		if err != nil {
			return err
		}
		defer env.Close()

		rows := classifyAll(ctx, env.Classifier, addresses, cfg.Batch.Concurrency, cfg.Batch.RPS)

		out := cmd.OutOrStdout()
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "batch: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeResults(out, rows)
	},
}

// batchRow is one output line. Err is set when the address could not be
// classified at all.
type batchRow struct {
	Address string
	Result  model.ClassificationResult
	Err     error
}

// readAddresses returns the non-blank addresses in r, in file order.
func readAddresses(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv")
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := 0
	start := 0
	for i, h := range records[0] {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "address") {
			col, start = i, 1
			break
		}
	}

	var addresses []string
	for _, rec := range records[start:] {
		if col >= len(rec) {
			continue
		}
		if a := strings.TrimSpace(rec[col]); a != "" {
			addresses = append(addresses, a)
		}
	}
	return addresses, nil
}

// classifyAll classifies addresses with at most concurrency in flight and,
// when rps > 0, no more than rps starts per second. Output order matches
// input order.
func classifyAll(ctx context.Context, clf addressClassifier, addresses []string, concurrency int, rps float64) []batchRow {
	rows := make([]batchRow, len(addresses))
	if concurrency < 1 {
		concurrency = 1
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	var done, failed atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, addr := range addresses {
		g.Go(func() error {
			rows[i].Address = addr

			if limiter != nil {
				if err := limiter.Wait(gCtx); err != nil {
					rows[i].Err = err
					failed.Add(1)
					return nil
				}
			}

			out, err := clf.Classify(gCtx, addr)
			if err != nil {
				rows[i].Err = err
				failed.Add(1)
				zap.L().Warn("batch: classify failed", zap.String("address", addr), zap.Error(err))
				return nil
			}
			rows[i].Result = out.ClassificationResult

			n := done.Add(1)
			zap.L().Debug("batch: classified",
				zap.String("address", addr),
				zap.String("category", string(out.Category)),
				zap.Int64("done", n),
				zap.Int("total", len(addresses)),
			)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int("total", len(addresses)),
		zap.Int64("classified", done.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return rows
}

var batchHeader = []string{"address", "category", "confidence", "nearby_count", "reason"}

func writeResults(w io.Writer, rows []batchRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(batchHeader); err != nil {
		return eris.Wrap(err, "batch: write header")
	}

	for _, r := range rows {
		res := r.Result
		if r.Err != nil {
			res = model.ClassificationResult{Category: model.CategoryUnknown, Reason: r.Err.Error()}
		}
		rec := []string{
			r.Address,
			string(res.Category),
			strconv.FormatFloat(res.Confidence, 'f', 2, 64),
			strconv.Itoa(res.NearbyCount),
			res.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "batch: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "batch: flush")
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "input CSV file")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output CSV file (default stdout)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent classifications (default from config)")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "max classification starts per second, 0 for unlimited (default from config)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

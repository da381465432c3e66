package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/address-classifier/internal/config"
	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent classifications",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(config.ModeHistory); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.List(ctx, historyLimit)
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No classifications found.")
			return nil
		}
		return printHistory(cmd.OutOrStdout(), records)
	},
}

func printHistory(out io.Writer, records []model.ClassificationRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tCATEGORY\tCONFIDENCE\tNEARBY\tPOLICY\tADDRESS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime),
			r.Result.Category,
			r.Result.Confidence,
			r.Result.NearbyCount,
			r.PolicyVersion,
			truncate(r.Address, 60),
		)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultListLimit, "max classifications to list")
	rootCmd.AddCommand(historyCmd)
}

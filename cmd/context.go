package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/address-classifier/internal/config"
)

var contextGeoJSON bool

var contextCmd = &cobra.Command{
	Use:   "context <address>",
	Short: "Show the place context gathered for an address",
	Long: `Runs the place lookups for an address and prints the context the
reasoning model would see. No reasoning call is made.

Examples:
  address-classifier context "1801 Century Park E Ste 2050, Los Angeles, CA 90067"
  address-classifier context --geojson "500 Market St, San Francisco, CA" > places.geojson`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initClassifier(ctx, config.ModeContext)
		if err != nil {
			return err
		}
		defer env.Close()

		address := strings.Join(args, " ")
		w := cmd.OutOrStdout()

		if contextGeoJSON {
			pc, err := env.Classifier.PlaceContext(ctx, address)
			if err != nil {
				return err
			}
			data, err := pc.GeoJSON()
			if err != nil {
				return err
			}
			_, err = w.Write(append(data, '\n'))
			return err
		}

		cc, err := env.Classifier.ContextFor(ctx, address)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cc)
	},
}

func init() {
	contextCmd.Flags().BoolVar(&contextGeoJSON, "geojson", false, "print the main and nearby places as a GeoJSON FeatureCollection")
	rootCmd.AddCommand(contextCmd)
}

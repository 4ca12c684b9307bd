package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mhouse",
	Short: "House price estimator",
	Long: `mhouse estimates residential sale prices with a pretrained regression model.

It serves a form that merges eight house attributes into the feature row the
model expects, renders the predicted price, and embeds a market dashboard.

Configuration is read from mhouse.yaml, .env and MHOUSE_* environment
variables, e.g. MHOUSE_MODEL_PATH and MHOUSE_DATASET_PATH.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("model", "", "Path to the model artifact (JSON, optionally .gz)")
	rootCmd.PersistentFlags().String("dataset", "", "Path to the reference dataset (CSV, optionally .gz)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

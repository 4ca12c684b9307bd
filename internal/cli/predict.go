package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/util"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate a price from the command line",
	Long: `Estimate a house price with the same defaults and bounds as the web form.

Fields left out keep their form default; out of range values are clamped.

Examples:
  mhouse predict
  mhouse predict --GrLivArea 2200 --OverallQual 8 --Neighborhood CollgCr
  mhouse predict --format json`,
	RunE: runPredict,
}

var predictFormat string

func init() {
	rootCmd.AddCommand(predictCmd)
	for _, f := range domain.FormFields {
		def := ""
		if f.IsInteger() {
			def = strconv.Itoa(f.Default)
		}
		predictCmd.Flags().String(f.Name, def, f.Label)
	}
	predictCmd.Flags().StringVar(&predictFormat, "format", "text", "Output format: text or json")
}

type predictReport struct {
	RequestID        string            `json:"request_id"`
	Price            float64           `json:"price"`
	Formatted        string            `json:"formatted"`
	UnseenCategories map[string]string `json:"unseen_categories,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictFormat != "text" && predictFormat != "json" {
		return fmt.Errorf("unknown format %q", predictFormat)
	}

	in, err := domain.ParseInput(func(name string) (string, bool) {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(ctx) }()

	est, err := app.Estimator.Estimate(ctx, in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := predictReport{
		RequestID:        est.RequestID,
		Price:            est.Price,
		Formatted:        util.FormatCurrency(est.Price),
		UnseenCategories: est.UnseenCategories,
	}
	if predictFormat == "json" {
		return json.NewEncoder(out).Encode(report)
	}

	fmt.Fprintf(out, "Predicted House Price: %s\n", report.Formatted)
	fields := make([]string, 0, len(est.UnseenCategories))
	for f := range est.UnseenCategories {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(out, "  note: %s=%q was not seen during training\n", f, est.UnseenCategories[f])
	}
	return nil
}

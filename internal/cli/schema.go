package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mhouse/internal/adapters/storage"
	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/util"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the feature schema and model compatibility",
	Long: `Derive the feature schema from the reference dataset and check that the
model artifact expects the same features.

Examples:
  mhouse schema
  mhouse schema --format json`,
	RunE: runSchema,
}

var schemaFormat string

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "table", "Output format: table or json")
}

type schemaReport struct {
	Dataset    string           `json:"dataset"`
	Model      string           `json:"model"`
	ModelFound bool             `json:"model_found"`
	Features   []domain.Feature `json:"features"`
	Compatible bool             `json:"compatible"`
	Problem    string           `json:"problem,omitempty"`
}

func runSchema(cmd *cobra.Command, args []string) error {
	if schemaFormat != "table" && schemaFormat != "json" {
		return fmt.Errorf("unknown format %q", schemaFormat)
	}

	ctx := cmd.Context()
	app, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(ctx) }()

	schema, err := app.Schemas.Load(ctx)
	if err != nil {
		return err
	}
	report := schemaReport{
		Dataset:    app.Config.Dataset.Path,
		Model:      app.Config.Model.Path,
		Features:   schema.Features(),
	}
	report.ModelFound, err = storage.Exists(report.Model)
	switch {
	case err != nil:
		report.Problem = err.Error()
	case !report.ModelFound:
		report.Problem = "model artifact not found"
	default:
		if _, err := app.Models.LoadModel(ctx); err != nil {
			report.Problem = err.Error()
		} else {
			report.Compatible = true
		}
	}

	out := cmd.OutOrStdout()
	if schemaFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printSchema(out, report)
}

func printSchema(out io.Writer, r schemaReport) error {
	fmt.Fprintf(out, "Dataset: %s\n", r.Dataset)
	if r.ModelFound {
		fmt.Fprintf(out, "Model:   %s\n", r.Model)
	} else {
		fmt.Fprintf(out, "Model:   %s (missing)\n", r.Model)
	}
	fmt.Fprintf(out, "Features: %s\n\n", util.FormatInt(len(r.Features)))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFEATURE\tKIND")
	for i, f := range r.Features {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, f.Name, f.Kind)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if r.Compatible {
		fmt.Fprintln(out, "\nModel is compatible with the dataset schema.")
	} else {
		fmt.Fprintf(out, "\nModel is NOT usable: %s\n", r.Problem)
	}
	return nil
}

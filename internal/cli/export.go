package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfcubecho/quil-monitor/internal/app"
	"github.com/wolfcubecho/quil-monitor/internal/metrics"
)

var (
	exportFrom      string
	exportTo        string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export daily history as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, v := range []string{exportFrom, exportTo} {
			if v == "" {
				continue
			}
			if _, err := time.Parse(metrics.DateLayout, v); err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", v, err)
			}
		}

		opts := app.ExportOptions{
			From:      exportFrom,
			To:        exportTo,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (YYYY-MM-DD, exclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/fertility/internal/models"
	"github.com/terraincognita07/fertility/internal/services"
)

func NewMetricsCommand(rootOpts *RootOptions) *cobra.Command {
	var profileID string
	var date string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print cycle predictions and today's risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMetricsCommand(rootOpts, profileID, date, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "profile id (defaults to the only profile)")
	cmd.Flags().StringVar(&date, "date", "", "evaluate on YYYY-MM-DD instead of today")

	return cmd
}

func RunMetricsCommand(opts *RootOptions, profileID string, date string, out io.Writer) error {
	registry, closeDB, err := openRegistry(opts.DBPath, opts.Config.Location)
	if err != nil {
		return err
	}
	defer closeDB()

	runtime, err := registry.Resolve(profileID)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}

	at := runtime.Now()
	if date = strings.TrimSpace(date); date != "" {
		day, err := time.Parse(models.SnapshotDateLayout, date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", date, err)
		}
		at = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, runtime.Location())
	}

	writeMetrics(out, runtime.Name(), runtime.MetricsAt(at))
	return nil
}

func writeMetrics(out io.Writer, name string, metrics services.Metrics) {
	rows := []struct {
		label string
		value string
	}{
		{"Profile", name},
		{"Date", metrics.Date.Format(models.SnapshotDateLayout)},
		{"Cycle day", intText(metrics.CycleDay)},
		{"Average length", floatText(metrics.CycleLengthAvg)},
		{"Length std", floatText(metrics.CycleLengthStd)},
		{"Next period", dayText(metrics.NextPeriodDate)},
		{"Ovulation", dayText(metrics.PredictedOvulationDate)},
		{"Fertile window", rangeText(metrics.FertileWindowStart, metrics.FertileWindowEnd)},
		{"Implantation window", rangeText(metrics.ImplantationWindowStart, metrics.ImplantationWindowEnd)},
		{"Risk", riskText(metrics)},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-20s %s\n", row.label+":", row.value)
	}
}

func intText(value *int) string {
	if value == nil {
		return "-"
	}
	return strconv.Itoa(*value)
}

func floatText(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}

func dayText(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format(models.SnapshotDateLayout)
}

func rangeText(start time.Time, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "-"
	}
	return dayText(start) + " .. " + dayText(end)
}

func riskText(metrics services.Metrics) string {
	if metrics.RiskLevel == "" {
		return "-"
	}
	return metrics.RiskLevel + " (" + metrics.RiskLabel + ")"
}

package services

import (
	"math"
	"sort"
	"time"

	"github.com/terraincognita07/fertility/internal/models"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type RiskReason string

const (
	RiskReasonNone              RiskReason = ""
	RiskReasonFertileWindow     RiskReason = "fertile_window"
	RiskReasonNearFertileWindow RiskReason = "near_fertile_window"
	RiskReasonSafe              RiskReason = "safe"
	RiskReasonImplantation      RiskReason = "implantation"
)

const (
	fertileDaysBeforeOvulation = 5
	fertileDaysAfterOvulation  = 1
	nearFertileMarginDays      = 2
	implantationStartOffset    = 6
	implantationEndOffset      = 10
)

var riskLabels = map[RiskReason]string{
	RiskReasonFertileWindow:     "High pregnancy risk today (fertile window).",
	RiskReasonNearFertileWindow: "Medium pregnancy risk today (near fertile window).",
	RiskReasonSafe:              "Safe to have unprotected sex today (low pregnancy risk).",
	RiskReasonImplantation:      "High implantation risk today (post-ovulation).",
}

// Metrics answers "what does today look like". Absent dates are zero
// time.Time values; absent numbers are nil.
type Metrics struct {
	Date                    time.Time
	CycleDay                *int
	CycleLengthAvg          *float64
	CycleLengthStd          *float64
	LastPeriodStart         time.Time
	LastPeriodEnd           time.Time
	NextPeriodDate          time.Time
	PredictedOvulationDate  time.Time
	FertileWindowStart      time.Time
	FertileWindowEnd        time.Time
	ImplantationWindowStart time.Time
	ImplantationWindowEnd   time.Time
	RiskLevel               string
	RiskReason              RiskReason
	RiskLabel               string
}

// BuildMetrics is a pure function of the cycle history, the prediction
// settings and the reference instant; only the date of now is used.
func BuildMetrics(cycles []models.CycleRecord, settings models.PredictionSettings, now time.Time) Metrics {
	settings = normalizePredictionSettings(settings)
	today := dateOnly(now)
	metrics := Metrics{Date: today}

	sorted := make([]models.CycleRecord, 0, len(cycles))
	sorted = append(sorted, cycles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	starts := make([]time.Time, 0, len(sorted))
	for _, record := range sorted {
		starts = append(starts, dateOnly(record.Start))
	}

	lengths := cycleLengths(starts)
	if average, ok := weightedAverageLength(lengths, settings); ok {
		metrics.CycleLengthAvg = &average
	}
	if deviation, ok := populationStdDev(lengths); ok {
		metrics.CycleLengthStd = &deviation
	}

	if len(starts) == 0 {
		return metrics
	}

	last := sorted[len(sorted)-1]
	metrics.LastPeriodStart = starts[len(starts)-1]
	if last.End != nil {
		metrics.LastPeriodEnd = dateOnly(*last.End)
	}

	if !today.Before(metrics.LastPeriodStart) {
		cycleDay := daysBetween(metrics.LastPeriodStart, today) + 1
		metrics.CycleDay = &cycleDay
	}

	if metrics.CycleLengthAvg == nil || *metrics.CycleLengthAvg <= 0 {
		return metrics
	}

	metrics.NextPeriodDate = metrics.LastPeriodStart.AddDate(0, 0, int(math.Round(*metrics.CycleLengthAvg)))
	metrics.PredictedOvulationDate = metrics.NextPeriodDate.AddDate(0, 0, -settings.LutealDays)
	metrics.FertileWindowStart, metrics.FertileWindowEnd = FertileWindow(metrics.PredictedOvulationDate)
	metrics.ImplantationWindowStart, metrics.ImplantationWindowEnd = ImplantationWindow(metrics.PredictedOvulationDate)

	metrics.RiskLevel, metrics.RiskReason = ClassifyRisk(
		today,
		metrics.FertileWindowStart,
		metrics.FertileWindowEnd,
		metrics.ImplantationWindowStart,
		metrics.ImplantationWindowEnd,
	)
	metrics.RiskLabel = RiskLabel(metrics.RiskReason)

	return metrics
}

// FertileWindow returns the inclusive range [ovulation-5, ovulation+1].
func FertileWindow(ovulation time.Time) (time.Time, time.Time) {
	ovulation = dateOnly(ovulation)
	return ovulation.AddDate(0, 0, -fertileDaysBeforeOvulation), ovulation.AddDate(0, 0, fertileDaysAfterOvulation)
}

// ImplantationWindow returns the inclusive range [ovulation+6, ovulation+10].
func ImplantationWindow(ovulation time.Time) (time.Time, time.Time) {
	ovulation = dateOnly(ovulation)
	return ovulation.AddDate(0, 0, implantationStartOffset), ovulation.AddDate(0, 0, implantationEndOffset)
}

// ClassifyRisk grades day against the fertile window and lets the
// implantation window override the result. Zero window bounds mean the
// window is unknown.
func ClassifyRisk(day, fertileStart, fertileEnd, implantStart, implantEnd time.Time) (string, RiskReason) {
	level, reason := "", RiskReasonNone

	if !fertileStart.IsZero() && !fertileEnd.IsZero() {
		switch {
		case betweenInclusive(day, fertileStart, fertileEnd):
			level, reason = RiskHigh, RiskReasonFertileWindow
		case betweenInclusive(day, fertileStart.AddDate(0, 0, -nearFertileMarginDays), fertileEnd.AddDate(0, 0, nearFertileMarginDays)):
			level, reason = RiskMedium, RiskReasonNearFertileWindow
		default:
			level, reason = RiskLow, RiskReasonSafe
		}
	}

	if betweenInclusive(day, implantStart, implantEnd) {
		level, reason = RiskHigh, RiskReasonImplantation
	}

	return level, reason
}

func RiskLabel(reason RiskReason) string {
	return riskLabels[reason]
}

func normalizePredictionSettings(settings models.PredictionSettings) models.PredictionSettings {
	if settings.LutealDays <= 0 {
		settings.LutealDays = models.DefaultLutealDays
	}
	if settings.RecentWindow <= 0 {
		settings.RecentWindow = models.DefaultRecentWindow
	}
	return settings
}

func cycleLengths(starts []time.Time) []int {
	if len(starts) < 2 {
		return nil
	}

	lengths := make([]int, 0, len(starts)-1)
	for i := 1; i < len(starts); i++ {
		lengths = append(lengths, daysBetween(starts[i-1], starts[i]))
	}
	return lengths
}

// weightedAverageLength blends the recent mean with the mean of all lengths.
// The long-run term deliberately includes the recent lengths as well.
func weightedAverageLength(lengths []int, settings models.PredictionSettings) (float64, bool) {
	if len(lengths) == 0 {
		return 0, false
	}
	if len(lengths) <= settings.RecentWindow {
		return averageInts(lengths), true
	}
	recent := tailInts(lengths, settings.RecentWindow)
	return settings.RecentWeight*averageInts(recent) + settings.LongWeight*averageInts(lengths), true
}

func populationStdDev(lengths []int) (float64, bool) {
	if len(lengths) < 2 {
		return 0, false
	}
	mean := averageInts(lengths)
	var sumSquares float64
	for _, value := range lengths {
		delta := float64(value) - mean
		sumSquares += delta * delta
	}
	return math.Sqrt(sumSquares / float64(len(lengths))), true
}

func tailInts(values []int, n int) []int {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func averageInts(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var total int
	for _, value := range values {
		total += value
	}
	return float64(total) / float64(len(values))
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(dateOnly(to).Sub(dateOnly(from)).Hours() / 24))
}

func betweenInclusive(day, start, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return !day.Before(start) && !day.After(end)
}

func dateOnly(t time.Time) time.Time {
	return models.DateOnly(t)
}

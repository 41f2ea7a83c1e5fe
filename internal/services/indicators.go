package services

const RiskUnknown = "unknown"

// Indicators are the at-a-glance states derived from today's metrics.
type Indicators struct {
	RiskState                 string
	SafeUnprotectedToday      bool
	HighImplantationRiskToday bool
}

func BuildIndicators(metrics Metrics) Indicators {
	state := metrics.RiskLevel
	if state == "" {
		state = RiskUnknown
	}
	return Indicators{
		RiskState:                 state,
		SafeUnprotectedToday:      metrics.RiskReason == RiskReasonSafe,
		HighImplantationRiskToday: metrics.RiskReason == RiskReasonImplantation,
	}
}

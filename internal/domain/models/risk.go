package models

// RiskScenario is one take-profit target at a fixed reward:risk ratio.
type RiskScenario struct {
	Ratio           float64
	TargetPrice     float64
	ProfitPotential float64
}

// RiskResult is the position sizing for a single entry/stop pair.
type RiskResult struct {
	Balance       float64
	RiskPercent   float64
	EntryPrice    float64
	StopLoss      float64
	RiskAmount    float64
	SLDistance    float64
	SLDistancePct float64
	PositionSize  float64
	MaxLoss       float64
	Long          bool
	Scenarios     []RiskScenario
}

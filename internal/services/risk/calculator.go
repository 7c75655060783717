package risk

import (
	"math"

	"SignalDesk/internal/domain/models"
)

// Ratios are the reward:risk multiples reported as scenarios.
var Ratios = []float64{1, 1.5, 2, 2.5, 3}

// Calculate sizes a position so that hitting stopLoss loses riskPercent of
// balance. The trade is long when entry is above the stop.
func Calculate(balance, riskPercent, entry, stopLoss float64) models.RiskResult {
	riskAmount := balance * riskPercent / 100
	distance := math.Abs(entry - stopLoss)

	size := 0.0
	if distance > 0 {
		size = riskAmount / distance
	}
	distancePct := 0.0
	if entry != 0 {
		distancePct = distance / entry * 100
	}

	long := entry > stopLoss
	scenarios := make([]models.RiskScenario, 0, len(Ratios))
	for _, r := range Ratios {
		target := entry - distance*r
		if long {
			target = entry + distance*r
		}
		scenarios = append(scenarios, models.RiskScenario{
			Ratio:           r,
			TargetPrice:     target,
			ProfitPotential: size * math.Abs(target-entry),
		})
	}

	return models.RiskResult{
		Balance:       balance,
		RiskPercent:   riskPercent,
		EntryPrice:    entry,
		StopLoss:      stopLoss,
		RiskAmount:    riskAmount,
		SLDistance:    distance,
		SLDistancePct: distancePct,
		PositionSize:  size,
		MaxLoss:       riskAmount,
		Long:          long,
		Scenarios:     scenarios,
	}
}

package engine

import (
	"fmt"

	"github.com/piwi3910/TruckLoad/internal/diff"
	"github.com/piwi3910/TruckLoad/internal/geometry"
	"github.com/piwi3910/TruckLoad/internal/model"
)

// ComparisonScenario is a named arrangement to compare.
type ComparisonScenario struct {
	Name        string
	Arrangement model.Arrangement
}

// ComparisonResult holds the computed statistics for a single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Stats        model.LoadStats
	Warnings     int
	FillPercent  float64
	WeightKg     float64
	RemovedCount int
}

// CompareScenarios computes statistics for each scenario, in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, tolerance float64) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))
	for _, sc := range scenarios {
		stats := model.CalculateLoadStats(sc.Arrangement)
		results = append(results, ComparisonResult{
			Scenario:     sc,
			Stats:        stats,
			Warnings:     countViolations(sc.Arrangement, tolerance),
			FillPercent:  stats.FillPercent,
			WeightKg:     stats.TotalWeight,
			RemovedCount: stats.RemovedCount,
		})
	}
	return results
}

// BuildDefaultScenarios returns the loaded baseline and the current edit of
// the session.
func BuildDefaultScenarios(s *Session) []ComparisonScenario {
	baseline := model.Arrangement{Container: s.Container()}
	for _, st := range s.Baseline() {
		if st.Removed {
			baseline.Removed = append(baseline.Removed, st.Unit)
		} else {
			baseline.Active = append(baseline.Active, st.Unit)
		}
	}
	return []ComparisonScenario{
		{Name: "Baseline", Arrangement: baseline},
		{Name: "Current", Arrangement: s.Arrangement()},
	}
}

// ChangeSummary describes pending unit and pallet changes in one line.
func ChangeSummary(units diff.ChangeSet[diff.UnitState], pallets diff.ChangeSet[model.Pallet]) string {
	if units.Empty() && pallets.Empty() {
		return "No changes"
	}
	return fmt.Sprintf("Units: %d added, %d modified, %d deleted; Pallets: %d added, %d modified, %d deleted",
		len(units.Added), len(units.Modified), len(units.DeletedIDs),
		len(pallets.Added), len(pallets.Modified), len(pallets.DeletedIDs))
}

// FormatComparison renders results as an aligned text table.
func FormatComparison(results []ComparisonResult) string {
	out := fmt.Sprintf("%-12s %8s %10s %8s %8s\n", "Scenario", "Fill %", "Weight kg", "Removed", "Issues")
	for _, r := range results {
		out += fmt.Sprintf("%-12s %8.1f %10.1f %8d %8d\n",
			r.Scenario.Name, r.FillPercent, r.WeightKg, r.RemovedCount, r.Warnings)
	}
	return out
}

func countViolations(a model.Arrangement, tolerance float64) int {
	return len(geometry.Validate(a, tolerance))
}

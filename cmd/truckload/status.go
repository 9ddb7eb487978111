package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/model"
)

var flagPreview string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show load statistics and placement warnings",
	Long: `Status prints fill, weight and balance figures for the stored load and
any placement problems. With --preview a script is replayed in memory and
compared against the stored load; nothing is saved.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagPreview, "preview", "", "replay this script in memory and compare")
}

type statusReport struct {
	Container model.Container  `json:"container"`
	Stats     model.LoadStats  `json:"stats"`
	Warnings  []string         `json:"warnings"`
	Pallets   int              `json:"pallets"`
	Changes   string           `json:"changes"`
	Compare   []compareSummary `json:"compare,omitempty"`
}

type compareSummary struct {
	Name         string  `json:"name"`
	FillPercent  float64 `json:"fill_percent"`
	WeightKg     float64 `json:"weight_kg"`
	RemovedCount int     `json:"removed_count"`
	Warnings     int     `json:"warnings"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := loadSession(cmd.Context(), st)
	if err != nil {
		return err
	}

	var results []engine.ComparisonResult
	if flagPreview != "" {
		f, err := os.Open(flagPreview)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		steps, err := engine.ParseScript(f)
		f.Close()
		if err != nil {
			return err
		}
		if _, err := s.Replay(steps); err != nil {
			return err
		}
		results = engine.CompareScenarios(engine.BuildDefaultScenarios(s), s.Settings().SupportTolerance)
	}

	report := statusReport{
		Container: s.Container(),
		Stats:     s.Stats(),
		Warnings:  s.Warnings(),
		Pallets:   len(s.Pallets().Snapshot()),
		Changes:   engine.ChangeSummary(s.UnitChanges(), s.PalletChanges()),
	}
	for _, r := range results {
		report.Compare = append(report.Compare, compareSummary{
			Name: r.Scenario.Name, FillPercent: r.FillPercent, WeightKg: r.WeightKg,
			RemovedCount: r.RemovedCount, Warnings: r.Warnings,
		})
	}
	if flagJSON {
		return printJSON(report)
	}

	c, stats := report.Container, report.Stats
	fmt.Printf("Container:  %s (%.0f x %.0f x %.0f mm)\n", c.Label, c.Length, c.Width, c.Height)
	fmt.Printf("Units:      %d loaded, %d removed\n", stats.ActiveCount, stats.RemovedCount)
	fmt.Printf("Fill:       %.1f%%\n", stats.FillPercent)
	fmt.Printf("Weight:     %.1f kg (%.1f kg left off)\n", stats.TotalWeight, stats.RemovedWeight)
	fmt.Printf("Balance:    (%.0f, %.0f, %.0f) mm, load length %.0f mm\n",
		stats.CenterOfMass.X, stats.CenterOfMass.Y, stats.CenterOfMass.Z, stats.LoadLength)
	fmt.Printf("Pallets:    %d\n", report.Pallets)
	if len(report.Warnings) == 0 {
		fmt.Println("No placement problems")
	}
	for _, w := range report.Warnings {
		fmt.Println("  !", w)
	}
	if len(results) > 0 {
		fmt.Println()
		fmt.Println(report.Changes)
		fmt.Print(engine.FormatComparison(results))
	}
	return nil
}

// Package stats prints sighting statistics from the saved tracker state.
package stats

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/sightings"
)

// Command creates the stats command for read-only reporting.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		species string
		top     int
		heatmap bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show sighting statistics",
		Long:  "Print the life list, top species and activity statistics from the saved sighting state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, species, top, heatmap)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "Show detailed statistics for one species")
	cmd.Flags().IntVar(&top, "top", 10, "Number of species in the top list")
	cmd.Flags().BoolVar(&heatmap, "heatmap", false, "Show the weekday/hour activity heatmap")

	return cmd
}

func run(settings *conf.Settings, species string, top int, heatmap bool) error {
	store := sightings.NewStateStore(settings.Sightings.Path, settings.Sightings.ArchivePath)
	tracker := sightings.New(
		sightings.Config{RareSpeciesMaxCount: settings.Sightings.RareSpeciesMaxCount},
		store, nil, nil, nil, nil, nil,
	)

	if species != "" {
		return printSpeciesStats(tracker, species)
	}

	printSummary(tracker, top)
	if heatmap {
		printHeatmap(tracker)
	}
	return nil
}

func printSummary(tracker *sightings.Tracker, top int) {
	lifeList := tracker.LifeList()
	fmt.Printf("Life list: %d species, %d active sightings\n\n", len(lifeList), tracker.ActiveCount())

	topSpecies := tracker.TopSpecies(top)
	if len(topSpecies) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SPECIES\tSIGHTINGS")
		for _, sc := range topSpecies {
			fmt.Fprintf(w, "%s\t%d\n", sc.Species, sc.Count)
		}
		w.Flush()
		fmt.Println()
	}

	today := tracker.DailyStats(time.Now())
	fmt.Printf("Today: %d sightings, %d species\n", today.TotalSightings, today.UniqueSpecies)
}

func printSpeciesStats(tracker *sightings.Tracker, species string) error {
	stats, ok := tracker.SpeciesStats(species)
	if !ok {
		return fmt.Errorf("no sightings recorded for %q", species)
	}

	fmt.Printf("%s\n", stats.Species)
	fmt.Printf("  Sightings:       %d\n", stats.TotalSightings)
	fmt.Printf("  First seen:      %s\n", stats.FirstSeen.Format("2006-01-02 15:04"))
	fmt.Printf("  Last seen:       %s\n", stats.LastSeen.Format("2006-01-02 15:04"))
	fmt.Printf("  Avg confidence:  %.1f%%\n", stats.AverageConfidence*100)
	fmt.Printf("  Peak hour:       %02d:00\n", stats.PeakHour)

	fmt.Printf("  By month:        ")
	for month, count := range stats.MonthlyCounts {
		if count > 0 {
			fmt.Printf("%s:%d ", time.Month(month+1).String()[:3], count)
		}
	}
	fmt.Println()
	return nil
}

func printHeatmap(tracker *sightings.Tracker) {
	grid := tracker.ActivityHeatmap()
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	fmt.Println("\nActivity by weekday and hour:")
	fmt.Printf("     %s\n", strings.TrimRight(hourHeader(), " "))
	for day := range grid {
		var b strings.Builder
		for hour := range grid[day] {
			b.WriteString(cell(grid[day][hour]))
		}
		fmt.Printf("%s  %s\n", days[day], strings.TrimRight(b.String(), " "))
	}
}

func hourHeader() string {
	var b strings.Builder
	for hour := 0; hour < 24; hour++ {
		b.WriteString(fmt.Sprintf("%3d", hour))
	}
	return b.String()
}

func cell(count int) string {
	if count == 0 {
		return "  ."
	}
	if count > 99 {
		count = 99
	}
	return fmt.Sprintf("%3d", count)
}

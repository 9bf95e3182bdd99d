package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cbme/epamerge/pkg/dataset"
	"github.com/cbme/epamerge/pkg/epa"
	"github.com/cbme/epamerge/pkg/logging"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(a App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dataset.csv>",
		Short: "Summarize an integrated dataset",
		Long: `Inspect loads an integrated dataset and prints record counts per
source and per EPA category, plus the covered date range.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := logging.WithLogger(c.Context(), a.Logger())
			records, err := dataset.Read(ctx, args[0])
			if err != nil {
				return err
			}

			sources := make(map[string]int)
			categories := make(map[string]int)
			var minDate, maxDate time.Time
			for _, rec := range records {
				sources[string(rec.Source)]++
				categories[rec.Category]++
				if d, ok := epa.ParseEventDate(rec.EventDate); ok {
					if minDate.IsZero() || d.Before(minDate) {
						minDate = d
					}
					if d.After(maxDate) {
						maxDate = d
					}
				}
			}

			fmt.Printf("%s: %d records\n", args[0], len(records))
			if !minDate.IsZero() {
				fmt.Printf("Date range: %s ~ %s\n",
					minDate.Format("2006-01-02"), maxDate.Format("2006-01-02"))
			}
			fmt.Println()

			printCountTable("Source", sources)
			fmt.Println()
			printCountTable("EPA Category", categories)
			return nil
		},
	}
}

// printCountTable renders a name/count table in sorted name order.
func printCountTable(label string, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{label, "Records"})
	for _, name := range names {
		display := name
		if display == "" {
			display = "(blank)"
		}
		table.Append([]string{display, strconv.Itoa(counts[name])})
	}
	table.Render()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/contracts-explorer/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Inspect the loaded sample",
	Long:  "Print row count, value and date ranges, and the first rows of the loaded store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}

		p := message.NewPrinter(language.AmericanEnglish)
		p.Printf("Rows:          %d\n", stats.Rows)
		if stats.Rows > 0 {
			p.Printf("Current value: $%.2f to $%.2f (mean $%.2f)\n",
				stats.MinValue, stats.MaxValue, stats.MeanValue)
			if stats.MinAction != nil && stats.MaxAction != nil {
				fmt.Printf("Action dates:  %s to %s\n",
					stats.MinAction.Format("2006-01-02"), stats.MaxAction.Format("2006-01-02"))
			}
			if stats.MinEnd != nil && stats.MaxEnd != nil {
				fmt.Printf("End dates:     %s to %s\n",
					stats.MinEnd.Format("2006-01-02"), stats.MaxEnd.Format("2006-01-02"))
			}
		}

		if last, err := st.LastLoad(ctx); err == nil && last != nil {
			fmt.Printf("Last load:     %s (%d rows, %s)\n",
				last.CompletedAt.Format("2006-01-02 15:04:05"), last.RowCount, last.Status)
		}

		head, err := st.Head(ctx, 5)
		if err != nil {
			return err
		}
		if len(head) > 0 {
			fmt.Println("\nFirst rows:")
			for i := range head {
				printContract(p, &head[i])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func printContract(p *message.Printer, c *model.Contract) {
	end := "-"
	if c.EndDate != nil {
		end = c.EndDate.Format("2006-01-02")
	}
	p.Printf("  %s  %-40.40s  %-30.30s  $%.2f  ends %s\n",
		c.UniqueKey, c.RecipientName, c.AwardingAgencyName,
		*c.CurrentTotalValue, end)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexmiron/podium/pkg/archive"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the archived transcripts.",
	Long:  "Prints statistics about the archived transcripts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := archivePath(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("archive file not found: %s", dbPath)
		}

		db, err := archive.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return err
		}
		if stats.TotalRecords == 0 {
			fmt.Println("No data in the archive to generate stats.")
			return nil
		}

		fmt.Printf("Records:      %d (%d valid)\n", stats.TotalRecords, stats.ValidRecords)
		fmt.Printf("Date range:   %s .. %s\n", stats.EarliestDate, stats.LatestDate)
		fmt.Printf("Total words:  %d\n\n", stats.TotalWords)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "EVENT TYPE\tCOUNT\t")
		for typ, n := range stats.ByEventType {
			fmt.Fprintf(w, "%s\t%d\t\n", typ, n)
		}
		w.Flush()

		if len(stats.SpeakerCounts) > 0 {
			fmt.Println()
			w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "SPEAKER\tTRANSCRIPTS\t")
			for _, sc := range stats.SpeakerCounts {
				fmt.Fprintf(w, "%s\t%d\t\n", sc.Speaker, sc.Count)
			}
			w.Flush()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

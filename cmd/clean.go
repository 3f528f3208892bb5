package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexmiron/podium/internal/utils"
	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/syncer"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Re-apply normalization to already-archived transcripts",
	Long: `Re-runs the current normalization rules over archived dialogue in a date
range, rewriting records that still carry site artifacts from before those
rules existed. Nothing is refetched from the source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := archivePath(cmd)
		if err != nil {
			return err
		}

		lock, err := utils.NewArchiveLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := archive.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stats, err := syncer.Clean(ctx, db, from, to,
			viper.GetString("source.primary_speaker"), dryRun, utils.Log)
		if err != nil {
			return err
		}

		fmt.Printf("Examined:  %d\n", stats.Examined)
		fmt.Printf("Dirty:     %d\n", stats.Dirty)
		fmt.Printf("Rewritten: %d\n", stats.Rewritten)
		fmt.Printf("Failed:    %d\n", stats.Failed)
		if dryRun && stats.Dirty > 0 {
			fmt.Println("Dry run: no records were modified.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().String("from", "2024-09-01", "Start of the date range (YYYY-MM-DD)")
	cleanCmd.Flags().String("to", "2030-12-31", "End of the date range (YYYY-MM-DD)")
	cleanCmd.Flags().Bool("dry-run", false, "Count dirty records without rewriting them")
}

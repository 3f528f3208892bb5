package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexmiron/podium/internal/utils"
	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/browser"
	"github.com/alexmiron/podium/pkg/syncer"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local archive with the source site",
	Long: `Computes the date window missing from the archive, discovers documents in
that window from the source listing, and fetches, extracts, and stores each
one. Safe to run repeatedly; already-archived documents are skipped.`,
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

		s := syncer.New(db, syncConfig(), syncer.NewSessionFactory(browserOptions()))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sum, err := s.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Window:     %s .. %s\n", sum.Window.Start.Format("2006-01-02"), sum.Window.End.Format("2006-01-02"))
		fmt.Printf("Discovered: %d\n", sum.Discovered)
		fmt.Printf("Added:      %d\n", sum.Added)
		fmt.Printf("Updated:    %d\n", sum.Updated)
		fmt.Printf("Skipped:    %d\n", sum.Skipped)
		fmt.Printf("Failed:     %d\n", sum.Failed)
		fmt.Printf("Elapsed:    %s\n", sum.Elapsed.Round(time.Second))
		return nil
	},
}

func syncConfig() syncer.Config {
	epoch, err := time.Parse("2006-01-02", viper.GetString("sync.epoch"))
	if err != nil {
		utils.Log.Warnf("invalid sync.epoch %q, using built-in default", viper.GetString("sync.epoch"))
		epoch = time.Time{}
	}
	return syncer.Config{
		SearchURL:      viper.GetString("source.search_url"),
		PrimarySpeaker: viper.GetString("source.primary_speaker"),
		Epoch:          epoch,
		MinWords:       viper.GetInt("sync.min_words"),
		ScrollCap:      viper.GetInt("sync.scroll_cap"),
		StallScrolls:   viper.GetInt("sync.stall_scrolls"),
		Delay:          time.Duration(viper.GetInt("sync.delay_ms")) * time.Millisecond,
		MaxRetries:     viper.GetInt("sync.max_retries"),
		RestartEvery:   viper.GetInt("sync.restart_every"),
		Log:            utils.Log,
	}
}

func browserOptions() browser.Options {
	return browser.Options{
		Headless:   viper.GetBool("browser.headless"),
		NavTimeout: time.Duration(viper.GetInt("browser.nav_timeout_sec")) * time.Second,
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

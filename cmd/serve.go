package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexmiron/podium/internal/server"
	"github.com/alexmiron/podium/internal/utils"
	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/syncer"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the podium API server",
	Long: `Serves the archive over HTTP: sync status, archive statistics, and
transcript listings. Sync runs can be triggered remotely, and an optional
interval keeps the archive fresh without external scheduling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := archivePath(cmd)
		if err != nil {
			return err
		}

		db, err := archive.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		s := syncer.New(db, syncConfig(), syncer.NewSessionFactory(browserOptions()))

		interval, _ := cmd.Flags().GetInt("interval")
		if interval > 0 {
			go func() {
				ticker := time.NewTicker(time.Duration(interval) * time.Hour)
				defer ticker.Stop()
				for range ticker.C {
					if !s.Start(context.Background()) {
						utils.Log.Warn("scheduled sync skipped, previous run still in progress")
					}
				}
			}()
		}

		user, _ := cmd.Flags().GetString("username")
		pass, _ := cmd.Flags().GetString("password")
		addr, _ := cmd.Flags().GetString("bind")

		return server.New(db, s, user, pass).Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	serveCmd.Flags().Int("interval", 0, "Hours between automatic sync runs (0 to disable)")
}

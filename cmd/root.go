package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/alexmiron/podium/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                 _ _
	 _ __   ___   __| (_)_   _ _ __ ___
	| '_ \ / _ \ / _` + "`" + ` | | | | | '_ ` + "`" + ` _ \
	| |_) | (_) | (_| | | |_| | | | | | |
	| .__/ \___/ \__,_|_|\__,_|_| |_| |_|
	|_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "podium",
	Short: "An incremental archive of public speech and press-event transcripts.",
	Long: LOGO + `podium keeps a local archive of speech, interview, and press-event
transcripts in sync with their source site. Each run covers only the date
window still missing from the archive, so repeated runs are cheap and safe.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.podium.yaml)")
	rootCmd.PersistentFlags().StringP("dbpath", "", "", "Path to the archive database (default is ~/.config/podium/podium.sqlite)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".podium")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.podium.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	viper.SetDefault("archive.path", "")
	viper.SetDefault("source.base_url", "https://rollcall.com")
	viper.SetDefault("source.search_url", "https://rollcall.com/factbase/trump/search/?sort=date&speaker=donald-trump")
	viper.SetDefault("source.primary_speaker", "Donald Trump")
	viper.SetDefault("sync.epoch", "2024-09-01")
	viper.SetDefault("sync.min_words", 50)
	viper.SetDefault("sync.scroll_cap", 200)
	viper.SetDefault("sync.stall_scrolls", 10)
	viper.SetDefault("sync.delay_ms", 2000)
	viper.SetDefault("sync.max_retries", 3)
	viper.SetDefault("sync.restart_every", 50)
	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.nav_timeout_sec", 45)

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

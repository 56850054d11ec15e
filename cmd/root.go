package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/retroprint/labelforge/internal/utils"
)

var cfgFile string

const (
	LOGO = `	 _       _          _  __
	| | __ _| |__   ___| |/ _| ___  _ __ __ _  ___
	| |/ _` + "`" + ` | '_ \ / _ \ | |_ / _ \| '__/ _` + "`" + ` |/ _ \
	| | (_| | |_) |  __/ |  _| (_) | | | (_| |  __/
	|_|\__,_|_.__/ \___|_|_|  \___/|_|  \__, |\___|
	                                    |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labelforge",
	Short: "Collects video game metadata from IGDB and renders labels and catalogues.",
	Long: LOGO + `labelforge pulls platform and game metadata from the IGDB API, picks the
games worth printing, and renders cartridge labels and PDF catalogues from the
collected artwork.`,
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.labelforge.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("config-dir", "", "", "Directory holding api_credentials.json and token.json (default is $HOME/.labelforge)")
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
		viper.SetConfigName(".labelforge")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.labelforge.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("igdb.config_dir", "")
	viper.SetDefault("igdb.batch_limit", 100)
	viper.SetDefault("output.dir", "output")
	viper.SetDefault("history.db", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// configDir resolves the credentials directory from the flag, the config file
// or the $HOME/.labelforge default, in that order.
func configDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	if dir == "" {
		dir = viper.GetString("igdb.config_dir")
	}
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".labelforge")
	}
	return dir, nil
}

// historyDBPath resolves the run history database location, defaulting to
// history.db inside the credentials directory.
func historyDBPath(cmd *cobra.Command) (string, error) {
	if path := viper.GetString("history.db"); path != "" {
		return path, nil
	}
	dir, err := configDir(cmd)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define configuration keys
const (
	CfgKeyAPIKey            = "tmdb.apikey"
	CfgKeyLanguage          = "tmdb.language"
	CfgKeyBaseURL           = "tmdb.base_url"
	CfgKeyCacheTTL          = "tmdb.cache_ttl"
	CfgKeyRequestsPerSecond = "tmdb.requests_per_second"
	CfgKeyDatabaseDriver    = "database.driver"
	CfgKeyDatabaseDSN       = "database.dsn"
	CfgKeyUploadsDir        = "uploads.dir"
	CfgKeyServerAddr        = "server.addr"
	CfgKeyServerSecret      = "server.secret"
	CfgKeyEditorUser        = "server.editor_user"
	CfgKeyEditorPassword    = "server.editor_password"
	CfgKeyLogLevel          = "log.level"
	CfgKeyLogFile           = "log.file"
	CfgKeyLogMaxSizeMB      = "log.max_size_mb"
)

// annotationNeedsKey marks commands that cannot run without an API key.
const annotationNeedsKey = "needs-api-key"

const configDirName = ".tmdbcli"

var (
	// Used for flags.
	cfgFile string

	// RootCmd represents the base command when called without any subcommands
	// Exported for use in tests
	RootCmd = &cobra.Command{
		Use:   "tmdbcli",
		Short: "A CLI tool to look up movies on The Movie Database and manage movie items.",
		Long: `tmdbcli searches The Movie Database, shows movie records, sideloads movie
images into local items and serves the movie item editor over HTTP.`,
		SilenceUsage: true,
		// Runs after viper has loaded the config file and environment.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNeedsKey] == "" {
				return nil
			}
			return checkAndPromptAPIKey(cmd)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tmdbcli/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	_ = viper.BindPFlag(CfgKeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault(CfgKeyLanguage, "en")
	viper.SetDefault(CfgKeyDatabaseDriver, "sqlite")
	viper.SetDefault(CfgKeyUploadsDir, "uploads")
	viper.SetDefault(CfgKeyServerAddr, ":8080")
	viper.SetDefault(CfgKeyLogMaxSizeMB, 10)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, configDirName))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// TMDB_TMDB_APIKEY, TMDB_SERVER_ADDR, ...
	viper.SetEnvPrefix("TMDB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file; keys come from the environment or the prompt
		} else if os.IsNotExist(err) {
			// Config directory does not exist yet
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

// configDir returns $HOME/.tmdbcli.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// checkAndPromptAPIKey asks for the API key when none is configured, saves it to the
// config file and stops so the command can be re-run.
func checkAndPromptAPIKey(cmd *cobra.Command) error {
	if viper.GetString(CfgKeyAPIKey) != "" {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "TMDb API Key not found.")
	fmt.Fprint(out, "Please enter your API Key: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	inputKey, err := reader.ReadString('\n')
	if err != nil && inputKey == "" {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	inputKey = strings.TrimSpace(inputKey)
	if inputKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	viper.Set(CfgKeyAPIKey, inputKey)

	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	// WriteConfigAs saves every current viper setting, not just the key.
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to save API key to %s: %w", configPath, err)
	}

	fmt.Fprintf(out, "API Key saved successfully to %s\n", configPath)
	return nil
}

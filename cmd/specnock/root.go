package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	specnock "github.com/specnock/specnock"
	"github.com/specnock/specnock/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "specnock",
		Short: "specnock - OpenAPI-driven HTTP interception for tests",
		Long: `specnock loads OpenAPI specifications for a set of base-URL endpoints and
installs mock interceptions for outgoing HTTP requests, so test suites can
exercise HTTP-client code without reaching a real network.

The CLI validates endpoint configurations, dry-runs request matching and
serves the debug API over a loaded repository.`,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./specnock.yaml)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("specnock")
	}

	viper.SetEnvPrefix("SPECNOCK")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults sets the default configuration values
func setDefaults() {
	viper.SetDefault("matching.defaultBasePath", "/")
	viper.SetDefault("tracing.maxTraces", 1000)
	viper.SetDefault("debug.host", "127.0.0.1")
	viper.SetDefault("debug.port", 8787)
}

// loadConfig reads the structured config file the repository is built from.
func loadConfig() (*config.Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = "specnock.yaml"
	}
	return config.Load(path)
}

// buildRepository constructs and configures a repository from the config.
func buildRepository(cfg *config.Config) (*specnock.Repository, error) {
	repo := specnock.New(
		specnock.WithDefaultBasePath(cfg.Matching.DefaultBasePath),
		specnock.WithTraceBuffer(cfg.Tracing.MaxTraces),
		specnock.WithLogger(log.Default()),
	)

	err := repo.Configure(specnock.Config{
		Endpoints: cfg.Endpoints,
		SpecMap:   cfg.SpecMap,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version string
	root    = &cobra.Command{
		Use:               "sieve [flags]",
		Short:             "sieve builds a minimal domain blocklist from many sources",
		Version:           version,
		PersistentPreRunE: readConfig,
		RunE:              runCmd,
		SilenceUsage:      true,
	}

	runc = &cobra.Command{
		Use:   "run",
		Short: "run a single ingestion pass and write the outputs",
		RunE:  runCmd,
	}

	servec = &cobra.Command{
		Use:   "serve",
		Short: "run passes periodically and serve the admin api",
		RunE:  serveCmd,
	}

	searchc = &cobra.Command{
		Use:   "search <domain>",
		Short: "explain why a domain is blocked",
		Args:  cobra.ExactArgs(1),
		RunE:  searchCmd,
	}

	configc = &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE:  configCmd,
	}
)

func init() {
	root.PersistentFlags().BoolP(
		"verbose",
		"v",
		false,
		"verbose output",
	)
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.PersistentFlags().String(
		"config",
		"",
		"config file location",
	)
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.PersistentFlags().BoolP(
		"force",
		"f",
		false,
		"ignore cached downloads",
	)
	_ = viper.BindPFlag("force", root.PersistentFlags().Lookup("force"))

	servec.Flags().String(
		"listen",
		"",
		"admin api address",
	)
	_ = viper.BindPFlag("serve.listen", servec.Flags().Lookup("listen"))

	root.AddCommand(runc, servec, searchc, configc)

	viper.SetEnvPrefix("SIEVE")
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())
}

// readConfig locates the config file after the flags are parsed.
func readConfig(_ *cobra.Command, _ []string) error {
	if viper.GetString("config") != "" {
		viper.SetConfigFile(viper.GetString("config"))
	} else {
		viper.SetConfigName("sieve")
		viper.AddConfigPath("/etc/sieve/")

		// Check home directory/.sieve for config
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".sieve"))
		}

		// Check working directory for config
		wd, err := os.Getwd()
		if err == nil {
			viper.AddConfigPath(wd)
		}
	}

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}

	return nil
}

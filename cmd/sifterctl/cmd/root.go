package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "sifterctl",
		Short:        "sifterctl",
		SilenceUsage: true,
		Long:         `sifterctl compiles filter-query strings against a schema/allow-list document and prints the resulting SQL, or lints a query's syntax on its own.`,
	}

	configPath string
	verbose    bool
	log        = logrus.New()
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sifter.yaml", "path to the schema/allow-list YAML document")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	})
	return rootCmd.Execute()
}

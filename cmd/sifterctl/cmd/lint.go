package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typhoonworks/sifter"
)

var lintCmd = &cobra.Command{
	Use:   "lint [query]",
	Short: "Check a filter-query string's syntax without a schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(args)
		if err != nil {
			return err
		}

		errs := sifter.Lint(query)
		if len(errs) == 0 {
			fmt.Println("ok")
			return nil
		}
		for _, e := range errs {
			fmt.Printf("%s: %s: %s\n", e.StageOf, e.Reason, e.Message)
		}
		return fmt.Errorf("%d syntax error(s) found", len(errs))
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

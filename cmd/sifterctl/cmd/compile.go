package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/typhoonworks/sifter"
	"github.com/typhoonworks/sifter/adapter/mssqladapter"
	"github.com/typhoonworks/sifter/adapter/pgadapter"
)

var (
	dialect string
	table   string
	columns []string

	compileCmd = &cobra.Command{
		Use:   "compile [query]",
		Short: "Compile a filter-query string against the configured schema and print the resulting SQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(args)
			if err != nil {
				return err
			}

			doc, err := LoadDocument(configPath)
			if err != nil {
				return err
			}

			log.WithField("query", query).Debug("compiling")

			compiled, err := sifter.Compile(query, doc.View(), doc.Options())
			if err != nil {
				return err
			}

			switch dialect {
			case "mssql":
				q := mssqladapter.Render(compiled, table, columns)
				fmt.Println(q.SQL)
				for _, a := range q.Args {
					fmt.Printf("%s = %v\n", a.Name, a.Value)
				}
			case "postgres", "":
				q := pgadapter.Render(compiled, table, columns)
				fmt.Println(q.SQL)
				for i, a := range q.Args {
					fmt.Printf("$%d = %v\n", i+1, a)
				}
			default:
				return fmt.Errorf("unknown --dialect %q, expected postgres or mssql", dialect)
			}

			if len(compiled.Meta.Warnings) > 0 {
				fmt.Fprintln(os.Stderr, "warnings:")
				for _, w := range compiled.Meta.Warnings {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", w.Reason, w.Message)
				}
			}
			return nil
		},
	}
)

// readQuery returns args[0] if given, else reads the whole of stdin.
func readQuery(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if len(args) > 1 {
		return "", errors.New("expected at most one argument: the query string")
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func init() {
	compileCmd.Flags().StringVar(&dialect, "dialect", "postgres", "target SQL dialect: postgres or mssql")
	compileCmd.Flags().StringVar(&table, "table", "", "root table name to SELECT from")
	compileCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to project; defaults to table.*")
	_ = compileCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(compileCmd)
}

package main

import (
	"fmt"
	"slices"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect content catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a YAML or JSON catalog (the embedded one when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d items OK", cat.Len())))

		counts := cat.CountByCategory()
		cats := make([]core.Category, 0, len(counts))
		for c := range counts {
			cats = append(cats, c)
		}
		slices.Sort(cats)
		for _, c := range cats {
			fmt.Fprintf(out, "  %s %s\n", usageStyle.Render(fmt.Sprintf("%-12s", c)), descStyle.Render(fmt.Sprint(counts[c])))
		}
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

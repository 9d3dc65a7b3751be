package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subtrans/internal/language"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List configured target languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(cfg.Translation.TargetLanguages))
			for i, name := range cfg.Translation.TargetLanguages {
				display, ok := language.Resolve(name)
				if !ok {
					display = name
				}
				note := ""
				if i == 0 {
					note = "default"
				}
				rows = append(rows, []string{display, language.ToISO2(display), note})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Language", "Code", ""},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

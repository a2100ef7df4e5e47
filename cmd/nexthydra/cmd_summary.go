package main

import (
	"github.com/spf13/cobra"
)

func newSummaryCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [source]",
		Short: "Print extraction statistics and page facts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.extract(cmd, sourceArg(args, 0))
			if err != nil {
				return err
			}
			info := res.Page
			info.NextData = nil
			return g.print(cmd, map[string]any{
				"summary": res.Summary,
				"page":    info,
			})
		},
	}
}

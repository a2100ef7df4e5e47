package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/nexthydra/extractor"
	"github.com/dgallion1/nexthydra/hydration"
)

func newSearchCmd(g *globalOptions) *cobra.Command {
	var caseSensitive bool

	cmd := &cobra.Command{
		Use:   "search <pattern> [source]",
		Short: "Find keys and string values containing pattern",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.extract(cmd, sourceArg(args, 1))
			if err != nil {
				return err
			}

			var opts []extractor.SearchOption
			if caseSensitive {
				opts = append(opts, extractor.CaseSensitive())
			}
			matches := extractor.FindDataByPattern(res.Records, args[0], opts...)
			if matches == nil {
				matches = []hydration.PatternMatch{}
			}
			return g.print(cmd, matches)
		},
	}

	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match case exactly")
	return cmd
}

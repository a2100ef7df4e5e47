package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/nexthydra/extractor"
)

func newKeysCmd(g *globalOptions) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "keys [source]",
		Short: "Count mapping keys up to a nesting depth",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 0 {
				return fmt.Errorf("--depth must not be negative")
			}
			res, err := g.extract(cmd, sourceArg(args, 0))
			if err != nil {
				return err
			}
			return g.print(cmd, extractor.GetAllKeys(res.Records, depth))
		},
	}

	cmd.Flags().IntVar(&depth, "depth", extractor.DefaultKeyDepth, "count keys at depths below this value")
	return cmd
}

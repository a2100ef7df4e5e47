package main

import (
	"github.com/spf13/cobra"
)

func newParseCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [source]",
		Short: "Print every reassembled chunk record as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.extract(cmd, sourceArg(args, 0))
			if err != nil {
				return err
			}
			return g.print(cmd, res.Records)
		},
	}
}

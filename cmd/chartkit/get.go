package main

import (
	"fmt"
	"slices"

	"github.com/dshills/chartkit/internal/event"
	"github.com/dshills/chartkit/internal/options"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
)

func newGetCmd(c *cli) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "get PATH FILE...",
		Short: "Print one value from the merged options",
		Long: `Queries the merged options with a GJSON path such as chart.type,
colors.0 or series.#.name.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.mergedJSON(args[1:])
			if err != nil {
				return err
			}
			res := gjson.GetBytes(out, args[0])
			if !res.Exists() {
				return fmt.Errorf("no value at %s", args[0])
			}
			if raw && res.Type == gjson.String {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print strings without quotes")
	return cmd
}

func newPathsCmd(c *cli) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "paths FILE...",
		Short: "List the option paths set by the merged files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(event.NewBus(), args)
			if err != nil {
				return err
			}

			flat := options.Flatten(s.Options())
			paths := make([]string, 0, len(flat))
			for p := range flat {
				if match.Match(p, pattern) {
					paths = append(paths, p)
				}
			}
			slices.Sort(paths)

			for _, p := range paths {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "match", "*", "only list paths matching this wildcard pattern")
	return cmd
}

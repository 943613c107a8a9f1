package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
)

func newMergeCmd(c *cli) *cobra.Command {
	var (
		sets   []string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "merge FILE...",
		Short: "Deep-merge option files and print the result as JSON",
		Long: `Deep-merges TOML, YAML and JSON option files. Later files override
earlier ones; nested tables are merged, everything else is replaced.

Example:
  chartkit merge base.toml theme.yaml --set chart.type=column --set 'colors=["#000"]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.mergedJSON(args)
			if err != nil {
				return err
			}
			if out, err = applySets(out, sets); err != nil {
				return err
			}
			return writeJSON(cmd, out, indent)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a value: path=value (value is JSON or a string)")
	cmd.Flags().BoolVar(&indent, "indent", false, "pretty-print the output")
	return cmd
}

// applySets writes each path=value assignment into doc. Values that parse as
// JSON are inserted raw; anything else is stored as a string.
func applySets(doc []byte, sets []string) ([]byte, error) {
	for _, s := range sets {
		path, value, ok := strings.Cut(s, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --set %q: want path=value", s)
		}

		var err error
		if json.Valid([]byte(value)) {
			doc, err = sjson.SetRawBytes(doc, path, []byte(value))
		} else {
			doc, err = sjson.SetBytes(doc, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("applying --set %s: %w", path, err)
		}
	}
	return doc, nil
}

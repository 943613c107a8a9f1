package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dshills/chartkit/internal/event"
	"github.com/dshills/chartkit/internal/event/native"
	"github.com/dshills/chartkit/internal/script"
	"github.com/spf13/cobra"
)

// runResult is printed by the run command.
type runResult struct {
	Type             string         `json:"type"`
	Target           string         `json:"target"`
	DefaultPrevented bool           `json:"defaultPrevented"`
	DefaultRan       bool           `json:"defaultRan"`
	Data             map[string]any `json:"data,omitempty"`
}

func newRunCmd(c *cli) *cobra.Command {
	var (
		typ      string
		data     string
		isNative bool
		timeout  time.Duration
		indent   bool
	)

	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Load Lua event handlers and fire an event at a demo series",
		Long: `Runs SCRIPT against an instance of LineSeries, a class derived from
Series, then dispatches one event on that instance and prints what happened.

The script uses on(type, fn [, order]), off(type), fire(type [, data]) and
log(level, msg). A handler returning false prevents the default action.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload map[string]any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					return fmt.Errorf("parsing --data: %w", err)
				}
			}

			bus := event.NewBus(event.WithLogger(c.logger))
			series := event.NewClass("Series", nil)
			line := event.NewClass("LineSeries", series)

			var owner event.Owner = line.New()
			if isNative {
				owner = native.NewElement("path", line.Prototype())
			}

			sc := script.New(bus, owner,
				script.WithLogger(c.logger),
				script.WithName(filepath.Base(args[0])),
				script.WithTimeout(timeout))
			defer sc.Close()

			if err := sc.DoFile(args[0]); err != nil {
				return fmt.Errorf("running %s: %w", args[0], err)
			}

			res := runResult{Target: owner.EventObject().ID()}
			e := bus.Dispatch(owner, typ, event.NewEvent(payload), func(event.Owner, *event.Event) {
				res.DefaultRan = true
			})
			res.Type = e.Type
			res.DefaultPrevented = e.DefaultPrevented
			res.Data = e.Data

			out, err := json.Marshal(res)
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			return writeJSON(cmd, out, indent)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&typ, "event", "load", "event type to dispatch")
	flags.StringVar(&data, "data", "", "event data as a JSON object")
	flags.BoolVar(&isNative, "native", false, "dispatch through a native event target")
	flags.DurationVar(&timeout, "timeout", script.DefaultTimeout, "script execution timeout")
	flags.BoolVar(&indent, "indent", false, "pretty-print the output")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/chartkit/internal/event"
	"github.com/dshills/chartkit/internal/options/watcher"
	"github.com/dshills/chartkit/internal/optstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(c *cli) *cobra.Command {
	var (
		debounce time.Duration
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Reload option files on change and print the changed paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			bus := event.NewBus(event.WithLogger(c.logger))
			s, err := c.openStore(bus, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bus.On(s, optstore.EventAfterSetOptions, func(_ event.Owner, e *event.Event) bool {
				changed, _ := e.Data["changed"].([]string)
				if len(changed) == 0 {
					return true
				}
				fmt.Fprintf(out, "%s: %s\n", e.Data["source"], strings.Join(changed, ", "))
				return true
			})

			w, err := s.Watch(ctx, watcher.WithDebounce(debounce))
			if err != nil {
				return err
			}
			defer w.Close()

			c.logger.Info("watching option files", zap.Strings("files", w.Files()))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a change is reloaded")
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 waits for a signal)")
	return cmd
}

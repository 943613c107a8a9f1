package main

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/chartkit/internal/event"
	"github.com/dshills/chartkit/internal/logging"
	"github.com/dshills/chartkit/internal/options/loader"
	"github.com/dshills/chartkit/internal/optstore"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// cli holds the state shared by all subcommands.
type cli struct {
	logLevel string
	dev      bool
	env      bool
	prefix   string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "chartkit",
		Short:         "Chart option and event tooling",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(c.logLevel, c.dev)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&c.dev, "dev", false, "human-readable log output")
	flags.BoolVar(&c.env, "env", false, "apply option overrides from the environment")
	flags.StringVar(&c.prefix, "env-prefix", loader.DefaultEnvPrefix, "environment variable prefix")

	root.AddCommand(
		newMergeCmd(c),
		newGetCmd(c),
		newPathsCmd(c),
		newWatchCmd(c),
		newRunCmd(c),
	)
	return root
}

// openStore builds an option store from files, later files winning, with
// environment overrides on top when --env is set.
func (c *cli) openStore(bus *event.Bus, files []string) (*optstore.Store, error) {
	s := optstore.New(bus, nil, optstore.WithLogger(c.logger))
	for _, f := range files {
		if err := s.LoadFile(f); err != nil {
			return nil, err
		}
	}
	if c.env {
		if err := s.LoadEnv(loader.NewEnvLoader(c.prefix)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// mergedJSON returns the merged options of files as compact JSON.
func (c *cli) mergedJSON(files []string) ([]byte, error) {
	s, err := c.openStore(event.NewBus(event.WithLogger(c.logger)), files)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(s.Options())
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}
	return out, nil
}

func writeJSON(cmd *cobra.Command, data []byte, indent bool) error {
	if indent {
		data = pretty.Pretty(data)
	} else {
		data = append(data, '\n')
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}

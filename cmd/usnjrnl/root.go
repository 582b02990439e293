package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var debugLevel string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "usnjrnl",
		Short:         "NTFS USN change journal parser",
		Long:          "usnjrnl parses NTFS $UsnJrnl:$J streams and live volumes, emitting one JSON record per line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&debugLevel, "debug", "d", "", "Log level (panic, fatal, error, warn, info, debug, trace)")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newListenCmd())

	return cmd
}

func newLogger() (*logrus.Logger, error) {
	log := logrus.New()
	if debugLevel == "" {
		log.SetLevel(logrus.WarnLevel)
		return log, nil
	}
	level, err := logrus.ParseLevel(debugLevel)
	if err != nil {
		return nil, fmt.Errorf("unknown debug level %q: %w", debugLevel, err)
	}
	log.SetLevel(level)
	return log, nil
}

// Execute builds and runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

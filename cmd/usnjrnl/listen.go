package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/forensicmatt/usnjrnl"
	"github.com/spf13/cobra"
)

var (
	listenSource     string
	listenHistorical bool
	listenRaw        bool
)

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Tail a live NTFS volume's USN change journal and print one JSON record per line",
		RunE:  runListen,
	}

	flags := cmd.Flags()
	flags.StringVarP(&listenSource, "source", "s", "", `Volume to watch, e.g. "C:" (required)`)
	flags.BoolVar(&listenHistorical, "historical", false, "Start at USN 0 and rebuild past state instead of only watching new activity")
	flags.BoolVar(&listenRaw, "raw-flags", false, "Render reason/source_info/file_attributes as raw integers instead of symbolic names")
	cmd.MarkFlagRequired("source")

	return cmd
}

func runListen(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	adapter, err := usnjrnl.OpenVolume(fmt.Sprintf(`\\.\%s`, listenSource))
	if err != nil {
		return fmt.Errorf("opening volume %s: %w", listenSource, err)
	}
	defer adapter.Close()

	listener := usnjrnl.NewListener(listenSource, adapter, listenHistorical, log)
	cfg := usnjrnl.SerializeConfig{RawFlags: listenRaw}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	err = listener.Run(ctx, func(entry usnjrnl.UsnEntry) error {
		return printEntry(out, entry, cfg)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

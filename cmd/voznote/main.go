// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/voznote/capture"
	"github.com/voznote/capture/device"
)

func main() {
	lev, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || lev == zerolog.NoLevel {
		lev = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.StampMicro,
	}).With().Timestamp().Logger().Level(lev)

	root := &cobra.Command{
		Use:           "voznote",
		Short:         "Record mixed microphone and system audio",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRecordCmd())
	root.AddCommand(newDevicesCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("voznote finished with error")
	}
}

func newRecordCmd() *cobra.Command {
	var (
		mic    bool
		system bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record until interrupted, then save the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), capture.SourceSelection{
				Microphone:  mic,
				SystemAudio: system,
			}, output)
		},
	}
	cmd.Flags().BoolVar(&mic, "mic", true, "capture microphone")
	cmd.Flags().BoolVar(&system, "system", false, "capture system audio (loopback)")
	cmd.Flags().StringVarP(&output, "output", "o", "recording", "output path, extension follows realized encoding")
	return cmd
}

func runRecord(ctx context.Context, sel capture.SourceSelection, output string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	provider, err := device.NewProvider(device.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer provider.Close()

	// Session ends either on interrupt or when a source gets revoked
	idle := make(chan struct{})
	var idleOnce sync.Once
	ctrl := capture.NewController(provider,
		capture.WithLogger(log.Logger),
		capture.WithStateHandler(func(s capture.State) {
			if s == capture.StateIdle {
				idleOnce.Do(func() { close(idle) })
			}
		}),
	)

	if err := ctrl.Start(ctx, sel); err != nil {
		return fmt.Errorf("could not start recording, check permissions and source selection: %w", err)
	}

	fmt.Println("Recording... Enter toggles pause, Ctrl+C stops")
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			switch ctrl.State() {
			case capture.StateRecording:
				ctrl.Pause()
				fmt.Println("paused")
			case capture.StatePaused:
				ctrl.Resume()
				fmt.Println("resumed")
			}
		}
	}()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-idle:
			break loop
		case <-ticker.C:
			fmt.Printf("\r%s ", ctrl.Elapsed().Round(time.Second))
		}
	}
	fmt.Println()

	if _, err := ctrl.Stop(); err != nil {
		return err
	}
	res := ctrl.Result()
	if res == nil {
		return fmt.Errorf("no recording produced")
	}

	path, err := res.SaveTo(output)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s (%s, %d bytes, %s)\n", path, res.MIMEType, len(res.Data), res.Duration.Round(time.Second))
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture and loopback devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := device.NewProvider(device.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			defer provider.Close()

			captureDevs, err := provider.CaptureDevices()
			if err != nil {
				return err
			}
			fmt.Println("Capture devices:")
			for _, d := range captureDevs {
				fmt.Printf("  %s\n", d.Name())
			}

			playbackDevs, err := provider.PlaybackDevices()
			if err != nil {
				return err
			}
			fmt.Println("Playback devices (loopback candidates):")
			for _, d := range playbackDevs {
				fmt.Printf("  %s\n", d.Name())
			}
			return nil
		},
	}
}

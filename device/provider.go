// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

// Package device binds the capture graph to real audio hardware through
// miniaudio. Microphone maps to the default capture device, system audio to
// loopback capture of the default render device.
package device

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	"github.com/voznote/capture"
	"github.com/voznote/capture/audio"
)

type Provider struct {
	ctx    *malgo.AllocatedContext
	format audio.Format
	log    zerolog.Logger
}

type ProviderOption func(p *Provider)

func WithLogger(log zerolog.Logger) ProviderOption {
	return func(p *Provider) {
		p.log = log
	}
}

func WithFormat(format audio.Format) ProviderOption {
	return func(p *Provider) {
		p.format = format
	}
}

// NewProvider initializes the audio backend. Caller must Close it after all
// sessions finished.
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		format: audio.DefaultFormat,
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		p.log.Trace().Str("msg", message).Msg("miniaudio")
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	p.ctx = mctx
	return p, nil
}

func (p *Provider) Close() error {
	if p.ctx == nil {
		return nil
	}
	err := p.ctx.Uninit()
	p.ctx.Free()
	p.ctx = nil
	return err
}

// AcquireMicrophone opens default capture device.
func (p *Provider) AcquireMicrophone(ctx context.Context) (capture.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(p.format.NumChannels)
	cfg.SampleRate = uint32(p.format.SampleRate)

	src, err := openSource(p.ctx, cfg, capture.SourceMicrophone)
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	return src, nil
}

// AcquireDisplay opens loopback capture of the default render device, which
// carries whatever the system currently plays. Backends without loopback
// support fail acquisition here.
func (p *Provider) AcquireDisplay(ctx context.Context) (capture.DisplaySource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := malgo.DefaultDeviceConfig(malgo.Loopback)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(p.format.NumChannels)
	cfg.SampleRate = uint32(p.format.SampleRate)

	src, err := openSource(p.ctx, cfg, capture.SourceDisplay)
	if err != nil {
		return nil, fmt.Errorf("open loopback: %w", err)
	}
	return src, nil
}

// CaptureDevices lists capture hardware for the device picker.
func (p *Provider) CaptureDevices() ([]malgo.DeviceInfo, error) {
	return p.ctx.Devices(malgo.Capture)
}

// PlaybackDevices lists render hardware, loopback candidates.
func (p *Provider) PlaybackDevices() ([]malgo.DeviceInfo, error) {
	return p.ctx.Devices(malgo.Playback)
}

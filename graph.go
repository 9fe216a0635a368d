// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voznote/capture/audio"
)

// graph is the wired capture graph of one session: acquired sources feeding
// one mixer, mixer feeding recorder sink and analyzer tap. Owned exclusively
// by the session that built it.
type graph struct {
	sources  []Source
	mixer    *audio.Mixer
	analyzer *audio.Analyzer

	// interrupted is closed when any live source ends outside our control,
	// e.g. user revoked the share on OS level. Controller treats it as an
	// implicit stop request.
	interrupted chan struct{}
	intOnce     sync.Once

	closed    chan struct{}
	closeOnce sync.Once

	log zerolog.Logger
}

// buildGraph acquires requested sources and wires them into a mixed output
// teeing into sink and the analyzer. On error no partial graph is kept, all
// sources acquired within this request get released.
//
// Acquisition failure of one source is swallowed when another requested
// source contributes. A display share without audio track is released
// immediately and not counted as acquisition failure, unless nothing else
// contributes.
func buildGraph(ctx context.Context, provider SourceProvider, sel SourceSelection, format audio.Format, sink io.Writer, log zerolog.Logger) (*graph, error) {
	if sel.empty() {
		return nil, ErrInvalidRequest
	}

	var sources []Source
	var acqErrs []error

	if sel.Microphone {
		src, err := provider.AcquireMicrophone(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Microphone acquisition failed")
			acqErrs = append(acqErrs, fmt.Errorf("microphone: %w", err))
		} else {
			sources = append(sources, src)
		}
	}

	if sel.SystemAudio {
		src, err := provider.AcquireDisplay(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Display acquisition failed")
			acqErrs = append(acqErrs, fmt.Errorf("display: %w", err))
		case !src.HasAudio():
			// Video only share. Release tracks right away, they are of no
			// use here. Not a failure as long as something else contributes.
			log.Warn().Msg("Display share carries no audio track")
			src.Close()
		default:
			sources = append(sources, src)
		}
	}

	// Caller cancelled mid acquisition, e.g. dismissed the permission
	// prompt. Sources that completed before cancellation must not stay
	// acquired.
	if err := ctx.Err(); err != nil {
		for _, src := range sources {
			src.Close()
		}
		return nil, err
	}

	if len(sources) == 0 {
		if len(acqErrs) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, errors.Join(acqErrs...))
		}
		return nil, ErrSourceUnavailable
	}

	analyzer := audio.NewAnalyzer()
	mixer := audio.NewMixer(format, io.MultiWriter(sink, analyzer))
	for _, src := range sources {
		mixer.AddInput(src.Frames())
	}

	g := &graph{
		sources:     sources,
		mixer:       mixer,
		analyzer:    analyzer,
		interrupted: make(chan struct{}),
		closed:      make(chan struct{}),
		log:         log,
	}

	// A failing sink means nothing is being captured anymore. Treat it
	// like an external interruption so the session finalizes what it has.
	mixer.OnWriteError(func(err error) {
		g.interrupt()
	})

	for _, src := range sources {
		go g.watchSource(src)
	}
	return g, nil
}

func (g *graph) interrupt() {
	g.intOnce.Do(func() {
		close(g.interrupted)
	})
}

// start begins mixing. Until called no data reaches the sink, which keeps
// chunk delivery unobservable before acquisition fully completed.
func (g *graph) start() {
	g.mixer.Start()
}

func (g *graph) watchSource(src Source) {
	select {
	case <-src.Done():
		g.log.Info().Str("kind", src.Kind().String()).Msg("Source ended externally")
		g.interrupt()
	case <-g.closed:
	}
}

// close tears the graph down: stops mixing first so no writes race the
// finalization, then releases every acquired source. Idempotent and safe
// against sources already stopped externally.
func (g *graph) close() {
	g.closeOnce.Do(func() {
		close(g.closed)
		g.mixer.Stop()
		for _, src := range g.sources {
			if err := src.Close(); err != nil {
				g.log.Warn().Err(err).Str("kind", src.Kind().String()).Msg("Source release failed")
			}
		}
	})
}

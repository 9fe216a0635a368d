// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Result is the finalized audio artifact of one session. Produced exactly
// once on stop, immutable afterwards.
type Result struct {
	// ID of the session that produced this artifact
	ID string
	// Data is the complete encoded file content
	Data []byte
	// MIMEType is the realized encoding, not the requested one
	MIMEType string
	// Duration is recorded time, paused ranges excluded
	Duration time.Duration
}

// FileExtension maps realized encoding to a file extension. Unrecognized
// identifiers get a safe fallback.
func (r *Result) FileExtension() string {
	switch {
	case strings.HasPrefix(r.MIMEType, "audio/wav"):
		return ".wav"
	case strings.HasPrefix(r.MIMEType, "audio/ogg"):
		return ".ogg"
	}
	return ".bin"
}

// SaveTo writes the artifact to path. When path has no extension the
// realized one is appended. Returns final path written.
func (r *Result) SaveTo(path string) (string, error) {
	if ext := r.FileExtension(); !strings.HasSuffix(path, ext) {
		path += ext
	}
	if err := os.WriteFile(path, r.Data, 0644); err != nil {
		return "", fmt.Errorf("saving recording: %w", err)
	}
	return path, nil
}

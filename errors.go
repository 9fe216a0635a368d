// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2025, Voznote authors

package capture

import "errors"

var (
	// ErrInvalidRequest is returned when caller requested zero sources or
	// otherwise malformed start input. Checked before any acquisition.
	ErrInvalidRequest = errors.New("capture: no sources requested")

	// ErrSourceUnavailable is returned when no requested source could
	// contribute audio. Session stays Idle, nothing is left acquired.
	ErrSourceUnavailable = errors.New("capture: no source available")

	// ErrInvalidState is returned on start while a session is already live.
	ErrInvalidState = errors.New("capture: session already live")
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package filenlog provides a thin wrapper around zerolog.Logger used by
// every long-lived component of the SDK (transport pipeline, upload and
// download engines, event socket, distributed lock).
//
// Logger embeds zerolog.Logger so all standard zerolog methods (Debug, Info,
// Warn, Error, etc.) are available directly. Unlike an application, this
// library never configures global log state or opens files on the caller's
// behalf — callers pass in a *Logger (or omit one, in which case Nop is
// used) and own where the output goes.
package filenlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger writing JSON to os.Stderr, tagged with a
// "component" field (e.g. "transport", "upload", "socket", "lock").
func New(component string) *Logger {
	l := zerolog.New(os.Stderr).With().
		Str("component", component).
		Timestamp().
		Logger()
	return &Logger{l}
}

// Nop returns a *Logger that discards all log output. It is the default used
// by every component that is not given an explicit logger.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// With returns a child *Logger that inherits the receiver's fields and adds
// the given key/value pair, without mutating the receiver.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{l.Logger.With().Str(key, value).Logger()}
}

// options.go - Open-time configuration
package gofilegdb

import (
	"context"
	"log/slog"
)

// CountPolicy picks how to reconcile the record counts declared by the
// table file and its offset index when they disagree.
type CountPolicy int

const (
	// TrustOffsetIndexCount clamps the valid record count down to the
	// total declared by the offset index. This is the safe default: it
	// may hide features but never reads past the index.
	TrustOffsetIndexCount CountPolicy = iota

	// TrustTableCount raises the total record count to the valid count
	// declared by the table file. Rows past the end of the offset
	// index will fail to resolve.
	TrustTableCount
)

// Options tunes Open. The zero value is ready to use.
type Options struct {
	// IgnoreOffsetIndex skips the .gdbtablx file even when present and
	// scans the table file for record locations instead.
	IgnoreOffsetIndex bool

	// RequireOffsetIndex makes a missing .gdbtablx file an open error.
	// By default absence is tolerated with a warning and record
	// locations are guessed by scanning the table file.
	RequireOffsetIndex bool

	// ReportDeletedRows includes rows marked deleted when record
	// locations are guessed from the table file. Has no effect when an
	// offset index is used.
	ReportDeletedRows bool

	// CountMismatch selects the reconciliation policy for disagreeing
	// record counts.
	CountMismatch CountPolicy

	// DatesAsDouble returns datetime, date and time fields as their
	// raw stored doubles instead of time values.
	DatesAsDouble bool

	// Logger receives diagnostics about repaired or suspicious files.
	// Nil discards them.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

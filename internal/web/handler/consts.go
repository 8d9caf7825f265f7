package handler

import "math"

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath is the prefix of every JSON endpoint.
	APIPath = RootPath + "api"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg, db or gate is nil"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25

	// MaxPageSize caps the page size a client may request.
	MaxPageSize = 100

	// MaxPage caps the page number a client may request, keeping the row
	// offset within 32 bits.
	MaxPage = math.MaxInt32 / MaxPageSize
)

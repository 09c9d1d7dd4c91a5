package server

import (
	"errors"

	"github.com/marmos91/localmedia/pkg/content"
)

var (
	// ErrNotPrepared is returned by Start when Prepare has not succeeded
	// since the last Stop.
	ErrNotPrepared = errors.New("server not prepared")

	// ErrAlreadyPrepared is returned by Prepare when a file is already
	// being served. Call Stop first.
	ErrAlreadyPrepared = errors.New("server already prepared")

	// ErrAlreadyStarted is returned by Start when the accept loop is
	// already running.
	ErrAlreadyStarted = errors.New("server already started")

	// ErrServing is returned by Wait while the accept loop is running.
	ErrServing = errors.New("server still serving; call Stop before Wait")

	// ErrContentNotFound and ErrEmptyContent mirror the content package
	// sentinels so callers can match Prepare failures without importing it.
	ErrContentNotFound = content.ErrContentNotFound
	ErrEmptyContent    = content.ErrEmptyContent
)

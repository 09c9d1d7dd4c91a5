package content

import "errors"

var (
	// ErrContentNotFound indicates the content file does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrEmptyContent indicates the content file has zero length.
	ErrEmptyContent = errors.New("content is empty")

	// ErrNotRegularFile indicates the content path names a directory or
	// other non-regular file.
	ErrNotRegularFile = errors.New("content is not a regular file")

	// ErrProviderClosed is returned for sends that start after Clean.
	ErrProviderClosed = errors.New("content provider is closed")
)

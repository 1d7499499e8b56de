package chunk

import "errors"

var (
	// ErrEmptyContent indicates document content with nothing to chunk.
	// The caller marks the document unprocessable rather than dropping it.
	ErrEmptyContent = errors.New("document content is empty")
)

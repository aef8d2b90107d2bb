package content

import "errors"

var (
	ErrNoFilePaths = errors.New("must provide file path(s)")
	// markdown
	ErrMDConversion = errors.New("could not convert MD to HTML")
)

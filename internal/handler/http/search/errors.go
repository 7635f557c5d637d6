package search

import "errors"

var errMissingPhrase = errors.New("search: phrase is required")

var errStreamingUnsupported = errors.New("search: response writer does not support streaming")

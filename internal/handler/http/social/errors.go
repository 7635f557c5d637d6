package social

import "errors"

var errMissingURL = errors.New("social: url query parameter is required")

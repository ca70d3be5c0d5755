package field

import "errors"

// ErrConfiguration reports unusable pitch dimensions.
var ErrConfiguration = errors.New("invalid field configuration")

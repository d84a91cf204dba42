package sampling

import "errors"

// ErrSampleSize indicates a trial count below the minimum of one.
var ErrSampleSize = errors.New("invalid sample size")

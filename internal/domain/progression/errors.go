package progression

import "errors"

// ErrDuplicateApplication indicates a race result whose progression
// deltas were already applied.
var ErrDuplicateApplication = errors.New("result already applied")

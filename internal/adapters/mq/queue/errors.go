package queue

import "errors"

// ErrStopped signals that the queue was closed underneath a consumer.
var ErrStopped = errors.New("queue stopped")

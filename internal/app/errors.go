package service

import "errors"

// ErrBackpressure is returned when the race queue cannot accept more work.
var ErrBackpressure = errors.New("race queue full")

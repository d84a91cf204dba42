package model

import "errors"

// ErrInvalidAttribute indicates an entity snapshot carried an attribute
// outside its declared bounds. Wrapped errors name the field and value.
var ErrInvalidAttribute = errors.New("invalid attribute")

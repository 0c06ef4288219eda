package compliance

import "errors"

var (
	ErrInvalidWindow    = errors.New("invalid reporting window")
	ErrInvalidFilter    = errors.New("invalid report filter")
	ErrStoreUnavailable = errors.New("compliance data unavailable")
)

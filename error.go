package canopy

import "errors"

var (
	ErrBadConfig   = errors.New("bad config")
	ErrFrozen      = errors.New("registry frozen")
	ErrMissingData = errors.New("missing data")
	ErrNotExist    = errors.New("not exist")
	ErrNotValid    = errors.New("invalid")
)

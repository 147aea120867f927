package orderfilter

import "errors"

var (
	ErrInvalidMode      = errors.New("unknown filter mode")
	ErrInvalidReference = errors.New("invalid filter reference date")
)

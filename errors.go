package wbundle

import "errors"

var (
	ErrNotFound         = errors.New("wbundle: entry not found")
	ErrMalformedHeader  = errors.New("wbundle: malformed header")
	ErrTruncatedPayload = errors.New("wbundle: truncated payload")
	ErrCapacityExceeded = errors.New("wbundle: canvas capacity exceeded")
	ErrIO               = errors.New("wbundle: i/o failure")
	ErrCodec            = errors.New("wbundle: image codec failure")
	ErrInvalidName      = errors.New("wbundle: invalid entry name")
	ErrInvalidPayload   = errors.New("wbundle: invalid payload")
	ErrLimitExceeded    = errors.New("wbundle: limit exceeded")
)

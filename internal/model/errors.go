package model

import "errors"

// Sentinel errors for the rule engine model.
var (
	ErrUnknownAttribute       = errors.New("unknown attribute")
	ErrIncompleteStats        = errors.New("incomplete stats")
	ErrStatsAllocationInvalid = errors.New("stats allocation exceeds budget")
	ErrUnknownOption          = errors.New("unknown encounter option")
	ErrInvalidEffect          = errors.New("invalid effect")
)

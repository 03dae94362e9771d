package capacity

import (
	"errors"
	"fmt"
)

var (
	// ErrCeilingExceeded is recorded in ProbeResult.LimitingError when a count
	// no longer fits; Probe never returns it.
	ErrCeilingExceeded = errors.New("size exceeds ceiling")

	ErrTableRequired    = errors.New("lookup table required")
	ErrNotInTable       = errors.New("destination not in table")
	ErrTableFull        = errors.New("lookup table is full")
	ErrTableFrozen      = errors.New("lookup table is frozen")
	ErrNotAuthority     = errors.New("signer is not the table authority")
	ErrInsufficientPool = errors.New("address pool smaller than max count")
)

// EncodingError reports an operation set the sizer cannot encode under the
// requested mode.
type EncodingError struct {
	Count int
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %d operations: %v", e.Count, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// InsufficientPoolError is a caller error: the pool cannot supply maxCount
// distinct destinations.
type InsufficientPoolError struct {
	PoolSize int
	MaxCount int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("%s: pool=%d max=%d", ErrInsufficientPool.Error(), e.PoolSize, e.MaxCount)
}

func (e *InsufficientPoolError) Unwrap() error { return ErrInsufficientPool }

// CeilingExceededError describes the first count whose message was too large.
type CeilingExceededError struct {
	Count   int
	Size    int
	Ceiling int
}

func (e *CeilingExceededError) Error() string {
	return fmt.Sprintf("%s: %d operations need %d bytes, ceiling %d", ErrCeilingExceeded.Error(), e.Count, e.Size, e.Ceiling)
}

func (e *CeilingExceededError) Unwrap() error { return ErrCeilingExceeded }

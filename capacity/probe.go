package capacity

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

const (
	DefaultByteCeiling = solana.MaxTransactionSize
	DefaultMaxCount    = solana.LookupTableMaxAddresses
)

// ProbeResult is the outcome of one probe. When LimitingError is set,
// MaxOperations is one less than the count that failed; counts 1..MaxOperations
// all fit.
type ProbeResult struct {
	Mode          AddressingMode
	MaxOperations int
	LimitingError error
	// LastFitBytes is the size of the MaxOperations message (0 if none fit).
	LastFitBytes int
	// Attempts counts sizing calls, including the failing one.
	Attempts int
}

func (r ProbeResult) String() string {
	if r.LimitingError == nil {
		return fmt.Sprintf("%s: %d operations (%d bytes), every count tried fits", r.Mode, r.MaxOperations, r.LastFitBytes)
	}
	return fmt.Sprintf("%s: %d operations (%d bytes), stopped: %v", r.Mode, r.MaxOperations, r.LastFitBytes, r.LimitingError)
}

// Prober finds how many transfers from Source fit in one transaction.
type Prober struct {
	// Sizer defaults to WireSizer{FeePayer: Source}.
	Sizer    Sizer
	Source   solana.Pubkey
	Lamports uint64
	// Table is required for TableIndexed probes.
	Table *LookupTable
}

// Probe sizes transfers to the first 1, 2, 3, ... pool entries and stops at the
// first count that exceeds byteCeiling or cannot be encoded, or after maxCount.
// The scan is linear so the reported maximum is the first crossing even if
// size were not monotonic in count.
//
// Only a pool shorter than maxCount is returned as an error; ceiling and
// encoding failures are recorded in the result.
func (p *Prober) Probe(pool AddressPool, mode AddressingMode, byteCeiling, maxCount int) (ProbeResult, error) {
	res := ProbeResult{Mode: mode}
	if maxCount <= 0 || len(pool) == 0 {
		return res, nil
	}
	if len(pool) < maxCount {
		return res, &InsufficientPoolError{PoolSize: len(pool), MaxCount: maxCount}
	}

	sizer := p.Sizer
	if sizer == nil {
		sizer = WireSizer{FeePayer: p.Source}
	}

	ops := TransferOperations(p.Source, pool, maxCount, p.Lamports)
	for count := 1; count <= maxCount; count++ {
		res.Attempts++
		size, err := sizer.Size(ops[:count], mode, p.Table)
		if err != nil {
			res.LimitingError = err
			break
		}
		log.Tracef("%s: %d operations -> %d bytes", mode, count, size)
		if size > byteCeiling {
			res.LimitingError = &CeilingExceededError{Count: count, Size: size, Ceiling: byteCeiling}
			break
		}
		res.MaxOperations = count
		res.LastFitBytes = size
	}

	log.Debugf("probe %s", res)
	return res, nil
}

// CompareModes probes Inline (baseline) and TableIndexed (assisted)
// concurrently and compares them once both finish.
func (p *Prober) CompareModes(pool AddressPool, byteCeiling, maxCount int) (ComparisonResult, error) {
	var baseline, assisted ProbeResult
	var g errgroup.Group
	g.Go(func() error {
		var err error
		baseline, err = p.Probe(pool, Inline, byteCeiling, maxCount)
		return err
	})
	g.Go(func() error {
		var err error
		assisted, err = p.Probe(pool, TableIndexed, byteCeiling, maxCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return ComparisonResult{}, err
	}
	return Compare(baseline, assisted), nil
}

package capacity

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestProbe_SystemTransfersAtPacketLimit(t *testing.T) {
	pool := SyntheticPool("packet-limit", DefaultMaxCount)
	p := &Prober{Source: testPayer, Lamports: 1, Table: newTestTable(t, pool)}

	inline, err := p.Probe(pool, Inline, DefaultByteCeiling, DefaultMaxCount)
	require.NoError(t, err)
	require.Equal(t, 21, inline.MaxOperations, spew.Sdump(inline))
	require.Equal(t, 168+21*49, inline.LastFitBytes)
	require.Equal(t, 22, inline.Attempts)
	var ceilErr *CeilingExceededError
	require.ErrorAs(t, inline.LimitingError, &ceilErr)
	require.Equal(t, 22, ceilErr.Count)
	require.Equal(t, 168+22*49, ceilErr.Size)
	require.ErrorIs(t, inline.LimitingError, ErrCeilingExceeded)

	indexed, err := p.Probe(pool, TableIndexed, DefaultByteCeiling, DefaultMaxCount)
	require.NoError(t, err)
	require.Equal(t, 57, indexed.MaxOperations, spew.Sdump(indexed))
	require.Equal(t, 202+57*18, indexed.LastFitBytes)
	require.ErrorIs(t, indexed.LimitingError, ErrCeilingExceeded)
}

func TestProbe_ReferenceExample(t *testing.T) {
	model := CostModel{
		HeaderBytes:           100,
		InlineOperationBytes:  40,
		IndexedOperationBytes: 9,
		TableReferenceBytes:   35,
	}

	pool := SyntheticPool("reference", 200)
	p := &Prober{Sizer: model, Source: testPayer, Table: newTestTable(t, pool)}

	inline, err := p.Probe(pool, Inline, 1232, 200)
	require.NoError(t, err)
	require.Equal(t, 28, inline.MaxOperations)
	require.ErrorIs(t, inline.LimitingError, ErrCeilingExceeded)

	indexed, err := p.Probe(pool, TableIndexed, 1232, 200)
	require.NoError(t, err)
	require.Equal(t, 121, indexed.MaxOperations)
	require.ErrorIs(t, indexed.LimitingError, ErrCeilingExceeded)

	// A 100-entry pool and table clamp the search before the ceiling is hit.
	small := pool[:100]
	p.Table = newTestTable(t, small)
	clamped, err := p.Probe(small, TableIndexed, 1232, 100)
	require.NoError(t, err)
	require.Equal(t, 100, clamped.MaxOperations)
	require.NoError(t, clamped.LimitingError)
	require.Equal(t, 100+35+100*9, clamped.LastFitBytes)
}

func TestProbe_ExactCeilingBoundary(t *testing.T) {
	model := CostModel{HeaderBytes: 32, InlineOperationBytes: 100}
	pool := SyntheticPool("boundary", 10)
	p := &Prober{Sizer: model, Source: testPayer}

	const k = 5
	res, err := p.Probe(pool, Inline, 32+k*100, len(pool))
	require.NoError(t, err)
	require.Equal(t, k, res.MaxOperations)
	require.Equal(t, 32+k*100, res.LastFitBytes)

	var ceilErr *CeilingExceededError
	require.ErrorAs(t, res.LimitingError, &ceilErr)
	require.Equal(t, k+1, ceilErr.Count)
}

func TestProbe_EmptyInputsMakeNoSizingCalls(t *testing.T) {
	counter := &countingSizer{Sizer: SystemTransferCostModel}
	p := &Prober{Sizer: counter, Source: testPayer}

	res, err := p.Probe(SyntheticPool("empty", 10), Inline, DefaultByteCeiling, 0)
	require.NoError(t, err)
	require.Equal(t, ProbeResult{Mode: Inline}, res)

	res, err = p.Probe(nil, TableIndexed, DefaultByteCeiling, DefaultMaxCount)
	require.NoError(t, err)
	require.Equal(t, ProbeResult{Mode: TableIndexed}, res)

	require.Zero(t, counter.calls)
}

func TestProbe_InsufficientPool(t *testing.T) {
	p := &Prober{Source: testPayer}
	_, err := p.Probe(SyntheticPool("short", 10), Inline, DefaultByteCeiling, 11)

	var poolErr *InsufficientPoolError
	require.ErrorAs(t, err, &poolErr)
	require.Equal(t, 10, poolErr.PoolSize)
	require.Equal(t, 11, poolErr.MaxCount)
	require.ErrorIs(t, err, ErrInsufficientPool)
}

func TestProbe_EncodingErrorIsCaptured(t *testing.T) {
	pool := SyntheticPool("partial-table", 20)
	p := &Prober{Source: testPayer, Table: newTestTable(t, pool[:10])}

	res, err := p.Probe(pool, TableIndexed, DefaultByteCeiling, 20)
	require.NoError(t, err)
	require.Equal(t, 10, res.MaxOperations)
	require.Equal(t, 11, res.Attempts)

	var encErr *EncodingError
	require.ErrorAs(t, res.LimitingError, &encErr)
	require.Equal(t, 11, encErr.Count)
	require.ErrorIs(t, res.LimitingError, ErrNotInTable)
}

func TestProbe_FirstCountFails(t *testing.T) {
	pool := SyntheticPool("first", 5)
	p := &Prober{Source: testPayer}

	res, err := p.Probe(pool, TableIndexed, DefaultByteCeiling, 5)
	require.NoError(t, err)
	require.Zero(t, res.MaxOperations)
	require.Zero(t, res.LastFitBytes)
	require.ErrorIs(t, res.LimitingError, ErrTableRequired)

	res, err = p.Probe(pool, Inline, 10, 5)
	require.NoError(t, err)
	require.Zero(t, res.MaxOperations)
	require.ErrorIs(t, res.LimitingError, ErrCeilingExceeded)
}

func TestProbe_MonotonicInCeiling(t *testing.T) {
	pool := SyntheticPool("monotonic", 80)
	p := &Prober{Source: testPayer, Table: newTestTable(t, pool)}

	for _, mode := range []AddressingMode{Inline, TableIndexed} {
		prev := 0
		for ceiling := 0; ceiling <= 1600; ceiling += 37 {
			res, err := p.Probe(pool, mode, ceiling, len(pool))
			require.NoError(t, err)
			require.GreaterOrEqualf(t, res.MaxOperations, prev, "mode=%s ceiling=%d", mode, ceiling)
			prev = res.MaxOperations
		}
	}
}

func TestProbe_TableNeverWorseAboveOverhead(t *testing.T) {
	pool := SyntheticPool("never-worse", 120)
	p := &Prober{Source: testPayer, Table: newTestTable(t, pool)}

	// Above the table overhead plus one inline transfer, indexing never loses.
	m := SystemTransferCostModel
	start := m.HeaderBytes + m.TableReferenceBytes + m.InlineOperationBytes
	for ceiling := start; ceiling <= 2400; ceiling += 53 {
		cmp, err := p.CompareModes(pool, ceiling, len(pool))
		require.NoError(t, err)
		require.GreaterOrEqualf(t, cmp.Assisted.MaxOperations, cmp.Baseline.MaxOperations, "ceiling=%d\n%s", ceiling, spew.Sdump(cmp))
	}
}

func TestProber_CompareModes(t *testing.T) {
	pool := SyntheticPool("compare", DefaultMaxCount)
	p := &Prober{Source: testPayer, Lamports: 1000, Table: newTestTable(t, pool)}

	cmp, err := p.CompareModes(pool, DefaultByteCeiling, DefaultMaxCount)
	require.NoError(t, err)
	require.Equal(t, Inline, cmp.Baseline.Mode)
	require.Equal(t, TableIndexed, cmp.Assisted.Mode)
	require.Equal(t, 36, cmp.Delta)
	require.Equal(t, "171.4%", cmp.DeltaPercentString())

	_, err = p.CompareModes(pool[:5], DefaultByteCeiling, 6)
	require.True(t, errors.Is(err, ErrInsufficientPool))
}

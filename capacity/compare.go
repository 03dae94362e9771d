package capacity

import "fmt"

const notApplicable = "not applicable"

// ComparisonResult contrasts a baseline probe with a table-assisted one.
type ComparisonResult struct {
	Baseline ProbeResult
	Assisted ProbeResult
	// Delta is Assisted.MaxOperations - Baseline.MaxOperations.
	Delta int
	// DeltaPercent is Delta relative to the baseline, meaningful only when
	// PercentApplicable (baseline above zero).
	DeltaPercent      float64
	PercentApplicable bool
}

// Compare derives the delta between two probe results.
func Compare(baseline, assisted ProbeResult) ComparisonResult {
	out := ComparisonResult{
		Baseline: baseline,
		Assisted: assisted,
		Delta:    assisted.MaxOperations - baseline.MaxOperations,
	}
	if baseline.MaxOperations != 0 {
		out.PercentApplicable = true
		out.DeltaPercent = float64(out.Delta) / float64(baseline.MaxOperations) * 100
	}
	return out
}

// DeltaPercentString renders the percentage with one decimal, or
// "not applicable" when the baseline fit nothing.
func (c ComparisonResult) DeltaPercentString() string {
	if !c.PercentApplicable {
		return notApplicable
	}
	return fmt.Sprintf("%.1f%%", c.DeltaPercent)
}

func (c ComparisonResult) String() string {
	return fmt.Sprintf("baseline %d, assisted %d, delta %+d (%s)",
		c.Baseline.MaxOperations, c.Assisted.MaxOperations, c.Delta, c.DeltaPercentString())
}

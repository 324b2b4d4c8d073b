package splitter

import (
	"math"

	"tabprep/domain/core"
	"tabprep/domain/datareadiness/ingestion"
	"tabprep/ports"
)

// Splitter implements SplitterPort with a seeded permutation
type Splitter struct {
	rngPort ports.RNGPort
}

// NewSplitter creates a splitter drawing permutations from rngPort
func NewSplitter(rngPort ports.RNGPort) *Splitter {
	return &Splitter{rngPort: rngPort}
}

// TestSize returns the number of evaluation records for n records at the
// given fraction: round(fraction*n), kept within [1, n-1].
func TestSize(n int, fraction float64) int {
	size := int(math.Round(fraction * float64(n)))
	if size < 1 {
		size = 1
	}
	if size > n-1 {
		size = n - 1
	}
	return size
}

// Split partitions rs into training and evaluation subsets. The first
// TestSize records of the seeded permutation form the evaluation set and
// both outputs keep permutation order.
func (s *Splitter) Split(rs ingestion.Recordset, testFraction float64, seed int64) (ingestion.Recordset, ingestion.Recordset, error) {
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return ingestion.Recordset{}, ingestion.Recordset{}, core.NewInvalidFractionError(testFraction)
	}
	if _, err := rs.Schema(); err != nil {
		return ingestion.Recordset{}, ingestion.Recordset{}, err
	}
	n := rs.Len()
	if n < 2 {
		return ingestion.Recordset{}, ingestion.Recordset{}, core.NewInsufficientDataError(n)
	}

	perm := s.rngPort.SeededStream("train_test_split", seed).Perm(n)
	testSize := TestSize(n, testFraction)

	return rs.Select(perm[testSize:]), rs.Select(perm[:testSize]), nil
}

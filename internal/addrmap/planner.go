package addrmap

import (
	"fmt"
	"sort"
)

// Modbus PDU limits for a single read.
const (
	// MaxBitsPerRead is the largest coil or discrete-input read.
	MaxBitsPerRead = 2000

	// MaxRegistersPerRead is the largest holding or input register read.
	MaxRegistersPerRead = 125
)

// Thresholds bound how far the planner merges spans.
//
// Group caps the extent of one request measured from its start; Unused caps
// the dead space read between two spans to save a round trip. Bit-addressed
// tables (coils, discrete inputs) and register tables are bounded separately
// because their cost per unit differs.
type Thresholds struct {
	GroupBit  int
	UnusedBit int
	GroupReg  int
	UnusedReg int
}

// Validate checks every threshold is within the protocol limits.
func (t Thresholds) Validate() error {
	var fields []string
	if t.GroupBit < 1 || t.GroupBit > MaxBitsPerRead {
		fields = append(fields, "group_bit")
	}
	if t.UnusedBit < 0 {
		fields = append(fields, "unused_bit")
	}
	if t.GroupReg < 1 || t.GroupReg > MaxRegistersPerRead {
		fields = append(fields, "group_reg")
	}
	if t.UnusedReg < 0 {
		fields = append(fields, "unused_reg")
	}
	if len(fields) > 0 {
		return Invalid(ErrInvalidThreshold,
			fmt.Sprintf("group_bit must be 1..%d, group_reg 1..%d and unused thresholds non-negative", MaxBitsPerRead, MaxRegistersPerRead),
			fields...)
	}
	return nil
}

// bounds returns the group and unused thresholds for a function code.
func (t Thresholds) bounds(fc FuncCode) (group, unused int) {
	if fc.IsBit() {
		return t.GroupBit, t.UnusedBit
	}
	return t.GroupReg, t.UnusedReg
}

// SortSpans orders spans by function code, then start address, then longest
// first so a span that contains others opens the request.
func SortSpans(spans []AddressSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.FuncCode != b.FuncCode {
			return a.FuncCode < b.FuncCode
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Length > b.Length
	})
}

// PlanReadRequests merges spans into read requests in one greedy pass.
//
// The input slice is not modified. The result is sorted by function code and
// start address, and every span lies whole inside a single request. A span
// that breaks a threshold opens a new request as is, so a request may
// overlap the one before it.
func PlanReadRequests(spans []AddressSpan, t Thresholds) []ReadRequest {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]AddressSpan, len(spans))
	copy(sorted, spans)
	SortSpans(sorted)

	var reqs []ReadRequest
	open := ReadRequest(sorted[0])

	for _, s := range sorted[1:] {
		if s.FuncCode != open.FuncCode {
			reqs = append(reqs, open)
			open = ReadRequest(s)
			continue
		}

		group, unused := t.bounds(open.FuncCode)
		if s.End()-open.Start > group || s.Start-open.End() > unused {
			reqs = append(reqs, open)
			open = ReadRequest(s)
			continue
		}

		if s.End() > open.End() {
			open.Length = s.End() - open.Start
		}
	}

	return append(reqs, open)
}

package partition

// Range is one partition's half-open camera span [Start, End).
type Range struct {
	Start int
	End   int
}

// Count returns the number of elements in the range.
func (r Range) Count() int { return r.End - r.Start }

// Plan splits total elements into count contiguous ranges. Every partition
// except the last receives total/count elements; the last absorbs the
// remainder, so the union of all ranges covers each element exactly once.
// When total < count the trailing ranges are empty.
func Plan(total, count int) []Range {
	if count < 1 {
		return nil
	}
	per := total / count
	ranges := make([]Range, count)
	for i := 0; i < count; i++ {
		start := i * per
		end := start + per
		if i == count-1 {
			end = total
		}
		ranges[i] = Range{Start: start, End: end}
	}
	return ranges
}

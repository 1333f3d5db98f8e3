package loc

type Loc struct {
	// This is the 0-based index of this location from the start of the file, in bytes
	Start int
}

type Range struct {
	Loc Loc
	Len int
}

func (r Range) End() int {
	return r.Loc.Start + r.Len
}

// span is a range of bytes in a Tokenizer's buffer. The start is inclusive,
// the end is exclusive.
type Span struct {
	Start, End int
}

// OffsetRange is a pair of byte offsets into a source text. A negative
// Start or End means that side has not been seen (yet).
type OffsetRange struct {
	Start, End int
}

// UnknownRange returns a range with neither side known.
func UnknownRange() OffsetRange {
	return OffsetRange{Start: -1, End: -1}
}

// OpenRange returns a range whose start is known but whose end is not.
func OpenRange(start int) OffsetRange {
	return OffsetRange{Start: start, End: -1}
}

// Known reports whether both offsets are set.
func (r OffsetRange) Known() bool {
	return r.Start >= 0 && r.End >= 0
}

func (r OffsetRange) Len() int {
	if !r.Known() {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether offset lies in [Start, End).
func (r OffsetRange) Contains(offset int) bool {
	return r.Known() && r.Start <= offset && offset < r.End
}

package model

import "strings"

// CompileState is a single compiler pass marker recorded on an instance.
type CompileState uint8

const (
	Processed CompileState = iota
	Validated
)

var compileStateNames = [...]string{
	Processed: "PROCESSED",
	Validated: "VALIDATED",
}

func (c CompileState) String() string {
	if int(c) < len(compileStateNames) {
		return compileStateNames[c]
	}
	return "UNKNOWN"
}

// ParseCompileState returns the state with the given (case-insensitive) name.
func ParseCompileState(name string) (CompileState, bool) {
	for i, n := range compileStateNames {
		if strings.EqualFold(n, name) {
			return CompileState(i), true
		}
	}
	return 0, false
}

// CompileStateSet is a bitset of compile states.
type CompileStateSet uint32

// ProcessedValidated is the state set of fully compiled instances.
const ProcessedValidated = CompileStateSet(1<<Processed | 1<<Validated)

// CompileStateSetFromBitSet converts a serialized bitset.
func CompileStateSetFromBitSet(bits uint32) CompileStateSet {
	return CompileStateSet(bits)
}

// NewCompileStateSet builds a set from the given states.
func NewCompileStateSet(states ...CompileState) CompileStateSet {
	var s CompileStateSet
	for _, st := range states {
		s = s.With(st)
	}
	return s
}

func (s CompileStateSet) Has(state CompileState) bool {
	return s&(1<<state) != 0
}

func (s CompileStateSet) With(state CompileState) CompileStateSet {
	return s | 1<<state
}

func (s CompileStateSet) Without(state CompileState) CompileStateSet {
	return s &^ (1 << state)
}

// BitSet returns the serialized form of the set.
func (s CompileStateSet) BitSet() uint32 {
	return uint32(s)
}

// States lists the members in ascending order.
func (s CompileStateSet) States() []CompileState {
	var out []CompileState
	for i := range compileStateNames {
		if s.Has(CompileState(i)) {
			out = append(out, CompileState(i))
		}
	}
	return out
}

func (s CompileStateSet) String() string {
	names := make([]string, 0, len(compileStateNames))
	for _, st := range s.States() {
		names = append(names, st.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

package gokata

import (
	"fmt"
	"strings"
)

// Sequence is a length-carrying, possibly sparse ordered collection. The
// length is independent of which slots hold a value: a slot that was never
// assigned is "empty", which is distinct from a slot holding nil. Iteration
// over a sequence must be bounded by Len, never by the set of defined slots.
//
// Sequences are compared by pointer identity; a cast that changes nothing
// returns the original *Sequence untouched.
type Sequence struct {
	length int
	slots  map[int]any
}

// NewSequence returns a sequence of the given length with every slot empty.
func NewSequence(length int) *Sequence {
	if length < 0 {
		length = 0
	}
	return &Sequence{length: length, slots: make(map[int]any)}
}

// SeqOf returns a dense sequence holding the given values in order.
func SeqOf(values ...any) *Sequence {
	s := NewSequence(len(values))
	for i, v := range values {
		s.slots[i] = v
	}
	return s
}

// Len reports the sequence length, counting empty slots.
func (s *Sequence) Len() int { return s.length }

// At reports the value at i and whether the slot holds one. Out-of-range
// indexes behave like empty slots.
func (s *Sequence) At(i int) (any, bool) {
	if i < 0 || i >= s.length {
		return nil, false
	}
	v, ok := s.slots[i]
	return v, ok
}

// Get returns the slot value, or Absent for empty slots.
func (s *Sequence) Get(i int) any {
	if v, ok := s.At(i); ok {
		return v
	}
	return Absent
}

// Set stores v at i, growing the length when i is past the end.
func (s *Sequence) Set(i int, v any) {
	if i < 0 {
		return
	}
	if s.slots == nil {
		s.slots = make(map[int]any)
	}
	s.slots[i] = v
	if i >= s.length {
		s.length = i + 1
	}
}

// Append adds v after the last slot.
func (s *Sequence) Append(v any) {
	s.Set(s.length, v)
}

// Values materializes the sequence densely; empty slots yield Absent.
func (s *Sequence) Values() []any {
	out := make([]any, s.length)
	for i := 0; i < s.length; i++ {
		out[i] = s.Get(i)
	}
	return out
}

// Clone returns an independent copy sharing no slot storage.
func (s *Sequence) Clone() *Sequence {
	n := NewSequence(s.length)
	for i, v := range s.slots {
		n.slots[i] = v
	}
	return n
}

func (s *Sequence) String() string {
	b := &strings.Builder{}
	b.WriteByte('[')
	for i := 0; i < s.length; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if v, ok := s.At(i); ok {
			fmt.Fprintf(b, "%v", v)
		} else {
			b.WriteString("<empty>")
		}
	}
	b.WriteByte(']')
	return b.String()
}

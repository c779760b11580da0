package modeldesc

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
)

// A SignalTable is the explicit mapping between the names and value
// references of the scalar variables and the slots of the buffer.
type SignalTable struct {
	capacity buffer.Capacity
	signals  []Signal
	byName   map[string]int
	byVR     map[fmi.ValueReference]int
}

// NewSignalTable validates the signals against the buffer capacity and
// indexes them. Signals are kept in the order of their value references.
func NewSignalTable(
	signals []Signal,
	capacity buffer.Capacity,
) (*SignalTable, error) {
	t := &SignalTable{
		capacity: capacity,
		signals:  make([]Signal, 0, len(signals)),
		byName:   make(map[string]int),
		byVR:     make(map[fmi.ValueReference]int),
	}

	sorted := make([]Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValueReference < sorted[j].ValueReference
	})

	slots := make(map[buffer.Kind]map[int]string)

	for _, s := range sorted {
		s = s.withDefaults()

		if err := t.signalMustBeValid(s, slots); err != nil {
			return nil, err
		}

		t.byName[s.Name] = len(t.signals)
		t.byVR[s.ValueReference] = len(t.signals)
		t.signals = append(t.signals, s)
	}

	return t, nil
}

func (t *SignalTable) signalMustBeValid(
	s Signal,
	slots map[buffer.Kind]map[int]string,
) error {
	if s.Name == "" {
		return fmt.Errorf("signal with value reference %d has no name",
			s.ValueReference)
	}

	if _, dup := t.byName[s.Name]; dup {
		return fmt.Errorf("duplicate signal name %q", s.Name)
	}

	if other, dup := t.byVR[s.ValueReference]; dup {
		return fmt.Errorf("signals %q and %q share value reference %d",
			t.signals[other].Name, s.Name, s.ValueReference)
	}

	if _, err := ParseCausality(string(s.Causality)); err != nil {
		return fmt.Errorf("signal %q: %w", s.Name, err)
	}

	kind, err := s.Type.BufferKind()
	if err != nil {
		return fmt.Errorf("signal %q: %w", s.Name, err)
	}

	n := t.capacity.Of(kind)
	if s.Index < 0 || s.Index >= n {
		return fmt.Errorf("signal %q: %w: %s slot %d out of range [0, %d)",
			s.Name, fmi.ErrInvalidIndex, kind, s.Index, n)
	}

	if slots[kind] == nil {
		slots[kind] = make(map[int]string)
	}

	if owner, taken := slots[kind][s.Index]; taken {
		return fmt.Errorf("signals %q and %q share %s slot %d",
			owner, s.Name, kind, s.Index)
	}

	slots[kind][s.Index] = s.Name

	if s.Start != "" {
		if _, err := parseStart(s.Type, s.Start); err != nil {
			return fmt.Errorf("signal %q: invalid start %q: %w",
				s.Name, s.Start, err)
		}
	}

	return nil
}

// Assign numbers the signals the way the exporter does: value references run
// from zero across all the signals in the given order, and each type fills its
// buffer slots from zero.
func Assign(signals []Signal, capacity buffer.Capacity) (*SignalTable, error) {
	assigned := make([]Signal, len(signals))
	next := make(map[buffer.Kind]int)

	for i, s := range signals {
		kind, err := s.Type.BufferKind()
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", s.Name, err)
		}

		s.ValueReference = fmi.ValueReference(i)
		s.Index = next[kind]
		next[kind]++

		assigned[i] = s
	}

	return NewSignalTable(assigned, capacity)
}

// Capacity returns the buffer capacity the table was validated against.
func (t *SignalTable) Capacity() buffer.Capacity {
	return t.capacity
}

// Len returns the number of signals.
func (t *SignalTable) Len() int {
	return len(t.signals)
}

// Signals returns all the signals ordered by value reference.
func (t *SignalTable) Signals() []Signal {
	out := make([]Signal, len(t.signals))
	copy(out, t.signals)

	return out
}

// ByName finds a signal by its name.
func (t *SignalTable) ByName(name string) (Signal, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Signal{}, false
	}

	return t.signals[i], true
}

// ByValueReference finds a signal by its value reference.
func (t *SignalTable) ByValueReference(vr fmi.ValueReference) (Signal, bool) {
	i, ok := t.byVR[vr]
	if !ok {
		return Signal{}, false
	}

	return t.signals[i], true
}

// WithCausality returns the signals that have any of the given causalities.
func (t *SignalTable) WithCausality(cs ...Causality) []Signal {
	var out []Signal

	for _, s := range t.signals {
		for _, c := range cs {
			if s.Causality == c {
				out = append(out, s)
				break
			}
		}
	}

	return out
}

// StartValue returns the typed start value of the signal, or nil if it has
// none.
func (s Signal) StartValue() (any, error) {
	if s.Start == "" {
		return nil, nil
	}

	return parseStart(s.Type, s.Start)
}

func parseStart(t Type, start string) (any, error) {
	switch t {
	case TypeReal:
		return strconv.ParseFloat(start, 64)
	case TypeInteger:
		v, err := strconv.ParseInt(start, 10, 32)
		return fmi.Integer(v), err
	case TypeBoolean:
		return strconv.ParseBool(start)
	default:
		return start, nil
	}
}

package vofile

import (
	"fmt"
	"reflect"

	"github.com/scigolib/vofile/internal/core"
)

// Binder materializes typed values from the untyped memory of one
// decoded segment. Projections of pointer-identified subgraphs are
// memoized per (address, target type), so every reference to a shared
// cell yields the same projected value.
type Binder struct {
	mem   *core.Memory
	cache map[refKey]any
}

type refKey struct {
	addr int
	typ  reflect.Type
}

// NewBinder returns a Binder over the memory of a decoded segment.
func NewBinder(mem *core.Memory) *Binder {
	return &Binder{mem: mem, cache: make(map[refKey]any)}
}

// Schema projects one untyped value to a T.
type Schema[T any] func(b *Binder, d core.Data) (T, error)

// CellSchema projects one memory cell to a T. Compose it with Ref to
// obtain a shared, memoized Schema.
type CellSchema[T any] func(b *Binder, c core.Cell) (T, error)

// resolve projects the cell behind a pointer, memoized by the cell
// address and the target type. Cycles cannot occur: back-references to
// unfinished cells are rejected while the graph is filled.
func resolve[T any](b *Binder, d core.Data, what string, project CellSchema[T]) (T, error) {
	var zero T
	if d.Kind != core.DataPtr {
		return zero, fmt.Errorf("%s: expected pointer, got %s", what, d)
	}
	key := refKey{addr: d.Addr(), typ: reflect.TypeOf((*T)(nil)).Elem()}
	if v, ok := b.cache[key]; ok {
		return v.(T), nil
	}
	v, err := project(b, b.mem.Cell(d.Addr()))
	if err != nil {
		return zero, err
	}
	b.cache[key] = v
	return v, nil
}

// structCell views d as a block: an atom contributes its tag and no
// fields, a pointer must lead to a struct cell.
func (b *Binder) structCell(d core.Data, what string) (uint8, []core.Data, error) {
	switch d.Kind {
	case core.DataAtm:
		return uint8(d.N), nil, nil
	case core.DataPtr:
		if sc, ok := b.mem.Cell(d.Addr()).(core.StructCell); ok {
			return sc.Tag, sc.Fields, nil
		}
		return 0, nil, fmt.Errorf("%s: expected block, cell %d holds %T", what, d.Addr(), b.mem.Cell(d.Addr()))
	default:
		return 0, nil, fmt.Errorf("%s: expected block, got %s", what, d)
	}
}

// Ref lifts a cell projection to a shared pointer projection. Two
// references to the same address yield the same *T.
func Ref[T any](s CellSchema[T]) Schema[*T] {
	return func(b *Binder, d core.Data) (*T, error) {
		return resolve(b, d, "ref", func(b *Binder, c core.Cell) (*T, error) {
			v, err := s(b, c)
			if err != nil {
				return nil, err
			}
			return &v, nil
		})
	}
}

// Int expects an immediate scalar.
func Int() Schema[int64] {
	return func(b *Binder, d core.Data) (int64, error) {
		if d.Kind != core.DataInt {
			return 0, fmt.Errorf("int: expected immediate scalar, got %s", d)
		}
		return d.N, nil
	}
}

// Int63 expects a 63-bit unsigned custom scalar cell.
func Int63() Schema[uint64] {
	return func(b *Binder, d core.Data) (uint64, error) {
		if d.Kind != core.DataPtr {
			return 0, fmt.Errorf("int63: expected pointer, got %s", d)
		}
		c, ok := b.mem.Cell(d.Addr()).(core.Int63Cell)
		if !ok {
			return 0, fmt.Errorf("int63: cell %d holds %T", d.Addr(), b.mem.Cell(d.Addr()))
		}
		return c.N, nil
	}
}

// StringOf expects a string cell and converts its bytes through conv.
func StringOf[T any](conv func([]byte) (T, error)) Schema[T] {
	return func(b *Binder, d core.Data) (T, error) {
		var zero T
		if d.Kind != core.DataPtr {
			return zero, fmt.Errorf("string: expected pointer, got %s", d)
		}
		c, ok := b.mem.Cell(d.Addr()).(core.StringCell)
		if !ok {
			return zero, fmt.Errorf("string: cell %d holds %T", d.Addr(), b.mem.Cell(d.Addr()))
		}
		return conv(c.Bytes)
	}
}

// Vec projects a homogeneous sequence: a tag-0 block whose fields all
// share one element schema. Projections of shared vectors are memoized.
func Vec[T any](elem Schema[T]) Schema[[]T] {
	return func(b *Binder, d core.Data) ([]T, error) {
		if d.Kind == core.DataAtm {
			if d.N != 0 {
				return nil, fmt.Errorf("vec: expected tag 0, got tag %d", d.N)
			}
			return []T{}, nil
		}
		return resolve(b, d, "vec", func(b *Binder, c core.Cell) ([]T, error) {
			sc, ok := c.(core.StructCell)
			if !ok {
				return nil, fmt.Errorf("vec: expected block, cell holds %T", c)
			}
			if sc.Tag != 0 {
				return nil, fmt.Errorf("vec: expected tag 0, got tag %d", sc.Tag)
			}
			out := make([]T, 0, len(sc.Fields))
			for _, f := range sc.Fields {
				v, err := elem(b, f)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		})
	}
}

// Pair is a two-field tag-0 block.
type Pair[A, B any] struct {
	Fst A
	Snd B
}

// PairOf projects a two-field tag-0 block.
func PairOf[A, B any](fst Schema[A], snd Schema[B]) Schema[Pair[A, B]] {
	return func(b *Binder, d core.Data) (Pair[A, B], error) {
		var zero Pair[A, B]
		tag, fields, err := b.structCell(d, "pair")
		if err != nil {
			return zero, err
		}
		if tag != 0 || len(fields) != 2 {
			return zero, fmt.Errorf("pair: expected tag 0 with 2 fields, got tag %d with %d fields", tag, len(fields))
		}
		a, err := fst(b, fields[0])
		if err != nil {
			return zero, err
		}
		bb, err := snd(b, fields[1])
		if err != nil {
			return zero, err
		}
		return Pair[A, B]{Fst: a, Snd: bb}, nil
	}
}

// Nullable treats an immediate zero as absence and projects anything else
// through the underlying schema. A missing pointer is stored as Int(0).
func Nullable[T any](s Schema[*T]) Schema[*T] {
	return func(b *Binder, d core.Data) (*T, error) {
		if d.Kind == core.DataInt && d.N == 0 {
			return nil, nil
		}
		return s(b, d)
	}
}

// Wrapped transparently unwraps a unary tag-0 block.
func Wrapped[T any](inner Schema[T]) Schema[T] {
	return func(b *Binder, d core.Data) (T, error) {
		var zero T
		tag, fields, err := b.structCell(d, "wrapped")
		if err != nil {
			return zero, err
		}
		if tag != 0 || len(fields) != 1 {
			return zero, fmt.Errorf("wrapped: expected tag 0 with 1 field, got tag %d with %d fields", tag, len(fields))
		}
		return inner(b, fields[0])
	}
}

// Field binds one record slot to a destination. Declare record types by
// composing Fields in on-disk order.
type Field[T any] struct {
	bind func(b *Binder, d core.Data, dst *T) error
}

// BindField projects a slot with s and stores the result via set.
func BindField[T, F any](set func(*T, F), s Schema[F]) Field[T] {
	return Field[T]{bind: func(b *Binder, d core.Data, dst *T) error {
		v, err := s(b, d)
		if err != nil {
			return err
		}
		set(dst, v)
		return nil
	}}
}

// Record projects a tag-0 block with exactly one slot per declared field.
// Compose with Ref when the record may be shared.
func Record[T any](name string, fields ...Field[T]) CellSchema[T] {
	return func(b *Binder, c core.Cell) (T, error) {
		var out T
		sc, ok := c.(core.StructCell)
		if !ok {
			return out, fmt.Errorf("%s: expected block, cell holds %T", name, c)
		}
		if sc.Tag != 0 {
			return out, fmt.Errorf("%s: expected tag 0, got tag %d", name, sc.Tag)
		}
		if len(sc.Fields) != len(fields) {
			return out, fmt.Errorf("%s: expected block length was %d, actual block length was %d", name, len(fields), len(sc.Fields))
		}
		for i, f := range fields {
			if err := f.bind(b, sc.Fields[i], &out); err != nil {
				return out, err
			}
		}
		return out, nil
	}
}

// Variant is one alternative of a tagged union.
type Variant[T any] struct {
	Name  string
	Arity int
	Make  func(b *Binder, fields []core.Data) (T, error)
}

// Enum projects a tagged union: the block tag selects the variant, which
// states its arity and builds the value from the fields. Constant
// variants have arity 0 and arrive as atoms.
func Enum[T any](name string, variants map[uint8]Variant[T]) Schema[T] {
	return func(b *Binder, d core.Data) (T, error) {
		var zero T
		tag, fields, err := b.structCell(d, name)
		if err != nil {
			return zero, err
		}
		v, ok := variants[tag]
		if !ok {
			return zero, fmt.Errorf("%s: unknown variant tag %d", name, tag)
		}
		if len(fields) != v.Arity {
			return zero, fmt.Errorf("%s.%s: expected %d fields, got %d", name, v.Name, v.Arity, len(fields))
		}
		return v.Make(b, fields)
	}
}

package ir

import "fmt"

// Defn is an untyped reference to the value produced by an instruction.
// Definitions are plain values: freely copyable, not owners of storage.
type Defn struct {
	id InstrID
}

func (d Defn) InstrID() InstrID { return d.id }

func (d Defn) String() string { return fmt.Sprintf("Def@%d", uint32(d.id)) }

// TypedDefn carries the static output type of a value as a type
// parameter. Go has no phantom-type-only generic instantiation that can
// be inferred without a value, so the instruction id is the only runtime
// state; T only participates at the type level through this wrapper and
// the free functions (EmitPhi, EmitCmp, EmitBini, Cast, ...) that are
// parameterized over it.
type TypedDefn[T IrType] struct {
	id InstrID
}

func newTypedDefn[T IrType](id InstrID) TypedDefn[T] {
	return TypedDefn[T]{id: id}
}

func (d TypedDefn[T]) InstrID() InstrID { return d.id }

func (d TypedDefn[T]) Untyped() Defn { return Defn{id: d.id} }

func (d TypedDefn[T]) String() string { return fmt.Sprintf("Def@%d", uint32(d.id)) }

// Cast reinterprets a typed definition's static type. It performs no
// runtime check; the byte stream always carries the true type tag
// alongside the value (in Phi/Ret/Cmp/Bini/Const payloads), so a caller
// that casts to the wrong type only fools itself, not the reader.
func Cast[U IrType, T IrType](d TypedDefn[T]) TypedDefn[U] {
	return TypedDefn[U]{id: d.id}
}

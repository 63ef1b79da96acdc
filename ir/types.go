package ir

import "fmt"

// TypeTag is the closed set of concrete value types a definition can
// carry. It is encoded as a single byte wherever a payload needs to
// disambiguate its operand/output type.
type TypeTag uint8

const (
	Bool TypeTag = iota + 1
	Int32
	Int64
	PtrInt
)

func (t TypeTag) String() string {
	switch t {
	case Bool:
		return "Bool"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case PtrInt:
		return "PtrInt"
	default:
		return fmt.Sprintf("TypeTag(%d)", uint8(t))
	}
}

func (t TypeTag) valid() bool {
	return t >= Bool && t <= PtrInt
}

// IrType is implemented by the zero-sized marker types (BoolTy, Int32Ty,
// Int64Ty, PtrIntTy) that carry a value's static type through the
// builder-facing API as a type parameter. The method is unexported so
// the set of IR types stays closed to this package.
type IrType interface {
	typeTag() TypeTag
}

type BoolTy struct{}
type Int32Ty struct{}
type Int64Ty struct{}
type PtrIntTy struct{}

func (BoolTy) typeTag() TypeTag    { return Bool }
func (Int32Ty) typeTag() TypeTag   { return Int32 }
func (Int64Ty) typeTag() TypeTag   { return Int64 }
func (PtrIntTy) typeTag() TypeTag  { return PtrInt }

// tagOf returns the TypeTag of the IrType marker T without requiring a
// caller-supplied instance; T's marker types are all zero-sized structs,
// so the zero value is a valid receiver for typeTag().
func tagOf[T IrType]() TypeTag {
	var zero T
	return zero.typeTag()
}

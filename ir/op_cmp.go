package ir

import "fmt"

// CmpOp compares two operands of the same type and produces a Bool.
// Payload: kind byte + operand type tag byte.
type CmpOp struct {
	Kind CmpKind
	Type TypeTag
}

func NewCmpOp(kind CmpKind, tag TypeTag) CmpOp { return CmpOp{Kind: kind, Type: tag} }

func (CmpOp) Opcode() Opcode           { return OpCmp }
func (CmpOp) Terminal() bool           { return false }
func (CmpOp) OutType() (TypeTag, bool) { return Bool, true }
func (CmpOp) NumOperands() int         { return 2 }
func (CmpOp) NumTargets() int          { return 0 }

func (op CmpOp) WriteTo(buf []byte) []byte {
	return append(buf, byte(op.Kind), byte(op.Type))
}

func decodeCmpOp(bytes []byte) (int, CmpOp) {
	kind := CmpKind(bytes[0])
	tag := TypeTag(bytes[1])
	if !kind.valid() {
		panic(fmt.Sprintf("cogir: Cmp payload has invalid kind byte %#x", bytes[0]))
	}
	if !tag.valid() {
		panic(fmt.Sprintf("cogir: Cmp payload has invalid type tag %#x", bytes[1]))
	}
	return 2, CmpOp{Kind: kind, Type: tag}
}

func (op CmpOp) String() string {
	return fmt.Sprintf("Cmp%s<%s>", op.Kind, op.Type)
}

package ir

import "fmt"

// BiniOp is a binary integer operation: (T, T) -> T. Payload: kind byte
// + operand type tag byte.
type BiniOp struct {
	Kind BiniKind
	Type TypeTag
}

func NewBiniOp(kind BiniKind, tag TypeTag) BiniOp { return BiniOp{Kind: kind, Type: tag} }

func (BiniOp) Opcode() Opcode              { return OpBini }
func (BiniOp) Terminal() bool              { return false }
func (op BiniOp) OutType() (TypeTag, bool) { return op.Type, true }
func (BiniOp) NumOperands() int            { return 2 }
func (BiniOp) NumTargets() int             { return 0 }

func (op BiniOp) WriteTo(buf []byte) []byte {
	return append(buf, byte(op.Kind), byte(op.Type))
}

func decodeBiniOp(bytes []byte) (int, BiniOp) {
	kind := BiniKind(bytes[0])
	tag := TypeTag(bytes[1])
	if !kind.valid() {
		panic(fmt.Sprintf("cogir: Bini payload has invalid kind byte %#x", bytes[0]))
	}
	if !tag.valid() {
		panic(fmt.Sprintf("cogir: Bini payload has invalid type tag %#x", bytes[1]))
	}
	return 2, BiniOp{Kind: kind, Type: tag}
}

func (op BiniOp) String() string {
	return fmt.Sprintf("Bini%s_%s", op.Kind, op.Type)
}

package ir

import "fmt"

// ConstOp introduces a constant value. Payload: one type tag byte, then
// the value itself (bool as a single byte; Int32/Int64 as unsigned
// LEB128). No operands.
//
// One draft of this instruction set decoded a Const-Int64 payload by
// reusing the Int32 match arm (a duplicate discriminant bug), silently
// truncating every 64-bit constant to 32 bits. decodeConstOp below reads
// Int64 through its own arm.
type ConstOp struct {
	Type     TypeTag
	BoolVal  bool
	Int32Val uint32
	Int64Val uint64
}

func NewConstBool(b bool) ConstOp   { return ConstOp{Type: Bool, BoolVal: b} }
func NewConstInt32(v uint32) ConstOp { return ConstOp{Type: Int32, Int32Val: v} }
func NewConstInt64(v uint64) ConstOp { return ConstOp{Type: Int64, Int64Val: v} }

func (ConstOp) Opcode() Opcode              { return OpConst }
func (ConstOp) Terminal() bool              { return false }
func (op ConstOp) OutType() (TypeTag, bool) { return op.Type, true }
func (ConstOp) NumOperands() int            { return 0 }
func (ConstOp) NumTargets() int             { return 0 }

func (op ConstOp) WriteTo(buf []byte) []byte {
	buf = append(buf, byte(op.Type))
	switch op.Type {
	case Bool:
		v := byte(0)
		if op.BoolVal {
			v = 1
		}
		return append(buf, v)
	case Int32:
		return writeVarint(buf, uint64(op.Int32Val))
	case Int64:
		return writeVarint(buf, op.Int64Val)
	default:
		panic(fmt.Sprintf("cogir: Const has non-constant type %s", op.Type))
	}
}

func decodeConstOp(bytes []byte) (int, ConstOp) {
	tag := TypeTag(bytes[0])
	rest := bytes[1:]
	switch tag {
	case Bool:
		return 2, ConstOp{Type: Bool, BoolVal: rest[0] != 0}
	case Int32:
		nb, v := readVarint(rest)
		return 1 + nb, ConstOp{Type: Int32, Int32Val: uint32(v)}
	case Int64:
		nb, v := readVarint(rest)
		return 1 + nb, ConstOp{Type: Int64, Int64Val: v}
	default:
		panic(fmt.Sprintf("cogir: Const payload has unsupported type tag %#x", bytes[0]))
	}
}

func (op ConstOp) String() string {
	switch op.Type {
	case Bool:
		return fmt.Sprintf("ConstBool(%v)", op.BoolVal)
	case Int32:
		return fmt.Sprintf("ConstInt32(%d)", op.Int32Val)
	case Int64:
		return fmt.Sprintf("ConstInt64(%d)", op.Int64Val)
	default:
		return "Const(?)"
	}
}

package ir

import "fmt"

// RetOp returns its one operand and ends the block. Payload: the
// returned operand's type tag.
type RetOp struct {
	Type TypeTag
}

func NewRetOp(tag TypeTag) RetOp { return RetOp{Type: tag} }

func (RetOp) Opcode() Opcode           { return OpRet }
func (RetOp) Terminal() bool           { return true }
func (RetOp) OutType() (TypeTag, bool) { return 0, false }
func (RetOp) NumOperands() int         { return 1 }
func (RetOp) NumTargets() int          { return 0 }

func (op RetOp) WriteTo(buf []byte) []byte {
	return append(buf, byte(op.Type))
}

func decodeRetOp(bytes []byte) (int, RetOp) {
	tag := TypeTag(bytes[0])
	if !tag.valid() {
		panic(fmt.Sprintf("cogir: Ret payload has invalid type tag %#x", bytes[0]))
	}
	return 1, RetOp{Type: tag}
}

func (op RetOp) String() string {
	return fmt.Sprintf("Ret<%s>", op.Type)
}

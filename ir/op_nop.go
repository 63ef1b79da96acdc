package ir

// NopOp does nothing: no operands, Void output, not terminal, empty
// payload.
type NopOp struct{}

func (NopOp) Opcode() Opcode                { return OpNop }
func (NopOp) Terminal() bool                { return false }
func (NopOp) OutType() (TypeTag, bool)      { return 0, false }
func (NopOp) NumOperands() int              { return 0 }
func (NopOp) NumTargets() int               { return 0 }
func (NopOp) WriteTo(buf []byte) []byte     { return buf }
func (NopOp) String() string                { return "Nop" }

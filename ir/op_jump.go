package ir

// JumpOp is an unconditional branch to one target block. No operands,
// empty payload, one target.
type JumpOp struct{}

func (JumpOp) Opcode() Opcode            { return OpJump }
func (JumpOp) Terminal() bool            { return true }
func (JumpOp) OutType() (TypeTag, bool)  { return 0, false }
func (JumpOp) NumOperands() int          { return 0 }
func (JumpOp) NumTargets() int           { return 1 }
func (JumpOp) WriteTo(buf []byte) []byte { return buf }
func (JumpOp) String() string            { return "Jump" }

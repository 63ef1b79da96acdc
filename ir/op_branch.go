package ir

// BranchOp branches on a single Bool operand, selecting one of two
// target blocks (true target first, then false target).
type BranchOp struct{}

func (BranchOp) Opcode() Opcode            { return OpBranch }
func (BranchOp) Terminal() bool            { return true }
func (BranchOp) OutType() (TypeTag, bool)  { return 0, false }
func (BranchOp) NumOperands() int          { return 1 }
func (BranchOp) NumTargets() int           { return 2 }
func (BranchOp) WriteTo(buf []byte) []byte { return buf }
func (BranchOp) String() string            { return "Branch" }

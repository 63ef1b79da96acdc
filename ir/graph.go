package ir

// Graph is a finished, read-only IR: an instruction stream and a block
// table that a Builder has already verified are fully wired. It is
// obtained from a built Builder via IntoGraph or RunGraph.
type Graph struct {
	instrStore *InstrStore
	blockStore *BlockStore
}

func newGraph(instrStore *InstrStore, blockStore *BlockStore) *Graph {
	return &Graph{instrStore: instrStore, blockStore: blockStore}
}

// DumpStats logs a one-line summary of the graph's size, tagged with
// name so multiple graphs are distinguishable in a shared log.
func (g *Graph) DumpStats(name string) {
	builderLog.Infof("%s: %d blocks (%d starts, %d loops, %d phis), %d instruction bytes",
		name, g.blockStore.totalBlocks(), g.blockStore.numStarts, g.blockStore.numLoops,
		g.blockStore.totalPhis, g.instrStore.Len())
}

func enterSession[R any](g *Graph, f func(*GraphSession) R) R {
	start := g.blockStore.getBlock(g.blockStore.startBlockID())
	if !start.HasFinished() {
		panic("cogir: graph's start block was never finished")
	}
	sess := &GraphSession{
		graph:    g,
		curBlock: BlockRef{id: start.ID()},
		curInstr: g.instrStore.readInstrInfo(start.FirstInstr()),
	}
	return f(sess)
}

// GraphSession is a forward-only read cursor over a Graph, positioned
// at a single current instruction of its current block.
type GraphSession struct {
	graph    *Graph
	curBlock BlockRef
	curInstr InstrInfo
}

// CurBlock is the block the cursor is presently positioned in.
func (s *GraphSession) CurBlock() BlockRef { return s.curBlock }

// CurOp is the operation the cursor is presently positioned at.
func (s *GraphSession) CurOp() Op { return s.curInstr.Op() }

// CurDefn is the definition the cursor is presently positioned at.
func (s *GraphSession) CurDefn() Defn { return s.curInstr.Defn() }

// CurInputs returns a fresh iterator over the current instruction's
// input definitions; it does not disturb the session's own cursor.
func (s *GraphSession) CurInputs() *InstrInputs { return s.curInstr.inputsIter() }

// NextDefn advances the cursor to the next instruction within the
// current block. It returns ok=false at a block's terminal
// instruction: crossing a block boundary is NextBlock's job, not this
// cursor's, since which successor to take is a control-flow decision
// only the caller can make.
func (s *GraphSession) NextDefn() (Defn, bool) {
	next, ok := s.curInstr.nextDefn()
	if !ok {
		return Defn{}, false
	}
	s.curInstr = s.graph.instrStore.readInstrInfo(next.id)
	return s.curInstr.Defn(), true
}

// NextBlock advances the cursor to the block entered immediately after
// the current one, in reverse-postorder. It returns ok=false once the
// cursor has reached the last block the builder entered. This is a
// convenience cross-block traversal on top of the RPO index every
// BlockStore already maintains; NextDefn alone only walks within a
// single block.
func (s *GraphSession) NextBlock() (BlockRef, bool) {
	curOrder := s.graph.blockStore.getBlock(s.curBlock.id).Order()
	nextID, ok := s.graph.blockStore.nextRPOBlock(curOrder)
	if !ok {
		return BlockRef{}, false
	}
	blk := s.graph.blockStore.getBlock(nextID)
	s.curBlock = BlockRef{id: nextID}
	s.curInstr = s.graph.instrStore.readInstrInfo(blk.FirstInstr())
	return s.curBlock, true
}

// DebugPrintCurInstr logs the instruction presently under the cursor.
func (s *GraphSession) DebugPrintCurInstr() {
	debugPrintInstr(s.curInstr.Defn().InstrID(), s.curInstr.Op(), nil)
}

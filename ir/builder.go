package ir

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var builderLog = logrus.WithField("component", "builder")

// CapacityError is the panic value the public emit methods raise when
// the instruction stream has hit its hard cap. A full declared-block
// table is not reported this way: DeclPlainBlock/DeclLoopHead return
// ok=false instead. A caller that wants to stop construction cleanly
// instead of crashing can recover() at a boundary and type-assert for
// this, the way main.go recovers and reports it instead of crashing;
// ordinary misuse of the builder protocol still panics with a plain
// string and is not meant to be caught.
type CapacityError struct {
	Kind string
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("cogir: %s capacity exceeded", e.Kind)
}

// Builder owns the instruction stream and block table for one graph
// under construction. It is only ever touched through a BuildSession.
type Builder struct {
	instrStore    *InstrStore
	blockStore    *BlockStore
	subgraphDecls []BlockID
}

func newBuilder() *Builder {
	return &Builder{
		instrStore:    newInstrStore(),
		blockStore:    newBlockStore(),
		subgraphDecls: make([]BlockID, 0, 8),
	}
}

// Build runs f against a fresh root BuildSession and returns the
// resulting Builder once every declared block has been entered and
// finished, and every declared loop has been sealed. Any block left
// Declared, Entered, or Finished-but-not-LoopComplete is a protocol
// violation and panics.
func Build(f func(*BuildSession)) *Builder {
	b := newBuilder()
	root := newBuildSession(b, BlockRef{id: b.blockStore.startBlockID()}, 0)
	f(root)
	// The root session's own subgraphEntered only counts blocks it
	// entered directly: a nested DefSubgraph/DefLoop call can consume
	// extra slots from the shared declaration array on the root's
	// behalf, leaving root.subgraphComplete() false even on a fully
	// correct build. The only sound global check is that every
	// declared block, anywhere in the build, ended up Finished (and
	// every declared Loop ended up LoopComplete) - matching what the
	// original builder's top-level build() does instead of calling
	// assert_complete on its own root session.
	for _, blk := range b.blockStore.iterBlocks() {
		if !blk.HasFinished() {
			panic(fmt.Sprintf("cogir: block %d was declared but never finished", blk.ID()))
		}
		if blk.IsLoop() && !blk.HasLoopComplete() {
			panic(fmt.Sprintf("cogir: loop block %d finished but never sealed with def_loop", blk.ID()))
		}
	}
	return b
}

// BuildSafe is Build plus a recover boundary for the one failure class
// that is recoverable rather than a protocol bug: capacity exhaustion. Any other panic
// (a protocol violation) is left to propagate, since those are client
// bugs, not conditions a caller is meant to stop cleanly from.
func BuildSafe(f func(*BuildSession)) (b *Builder, err error) {
	defer func() {
		if r := recover(); r != nil {
			capErr, ok := r.(CapacityError)
			if !ok {
				panic(r)
			}
			err = errors.Wrap(capErr, "cogir: graph construction stopped")
		}
	}()
	b = Build(f)
	return b, nil
}

// DumpStats logs a one-line summary of the build's size, tagged with
// name so multiple builders are distinguishable in a shared log.
func (b *Builder) DumpStats(name string) {
	builderLog.Infof("%s: %d blocks (%d starts, %d loops, %d phis), %d instruction bytes",
		name, b.blockStore.totalBlocks(), b.blockStore.numStarts, b.blockStore.numLoops,
		b.blockStore.totalPhis, b.instrStore.Len())
}

// IntoGraph hands off a finished Builder's instruction stream and
// block table to a read-only Graph. The Builder itself is not reused
// afterward.
func (b *Builder) IntoGraph() *Graph {
	return newGraph(b.instrStore, b.blockStore)
}

// RunGraph consumes a finished Builder and runs f against a read-only
// GraphSession rooted at the start block.
func RunGraph[R any](b *Builder, f func(*GraphSession) R) R {
	return enterSession(b.IntoGraph(), f)
}

// BuildSession is the structured declare-then-define cursor a client
// uses to assemble one lexical scope of a graph: the root scope, or a
// def_subgraph/def_loop nested scope. A session only ever advances
// forward; it never revisits a block once left behind.
type BuildSession struct {
	builder         *Builder
	curBlock        BlockRef
	emittedPhis     uint32
	subgraphStart   uint32
	subgraphEntered uint32
}

func newBuildSession(b *Builder, curBlock BlockRef, emittedPhis uint32) *BuildSession {
	return &BuildSession{
		builder:       b,
		curBlock:      curBlock,
		emittedPhis:   emittedPhis,
		subgraphStart: uint32(len(b.subgraphDecls)),
	}
}

func (s *BuildSession) getBlock(ref BlockRef) *Block { return s.builder.blockStore.getBlock(ref.id) }
func (s *BuildSession) getCurBlock() *Block          { return s.getBlock(s.curBlock) }

func (s *BuildSession) subgraphDeclsLen() uint32 { return uint32(len(s.builder.subgraphDecls)) }
func (s *BuildSession) subgraphCurEnd() uint32    { return s.subgraphStart + s.subgraphEntered }
func (s *BuildSession) subgraphCurIdx(offset uint32) uint32 {
	return s.subgraphStart + offset
}

func (s *BuildSession) getSubgraphBlock(offset uint32) *Block {
	id := s.builder.subgraphDecls[s.subgraphCurIdx(offset)]
	return s.builder.blockStore.getBlock(id)
}

func (s *BuildSession) subgraphComplete() bool {
	return s.subgraphCurEnd() == s.subgraphDeclsLen()
}

// nextSpecBlock is the block def_block/def_loop must be called with
// next, in declaration order within this session's own scope.
func (s *BuildSession) nextSpecBlock() BlockRef {
	id := s.builder.subgraphDecls[s.subgraphCurEnd()]
	return BlockRef{id: id}
}

// assertComplete panics unless every block this session declared has
// been entered, in order, and (aside from the very last one, which the
// caller is still in the middle of finishing) already finished.
func (s *BuildSession) assertComplete() {
	if !s.subgraphComplete() {
		panic(fmt.Sprintf("cogir: scope closed with %d declared block(s) never defined, first is block %d",
			s.subgraphDeclsLen()-s.subgraphCurEnd(), s.nextSpecBlock().ID()))
	}
	for i := uint32(0); i+1 < s.subgraphEntered; i++ {
		blk := s.getSubgraphBlock(i)
		if !blk.HasFinished() {
			panic(fmt.Sprintf("cogir: block %d entered but never finished before its scope closed", blk.ID()))
		}
	}
}

// DeclPlainBlock declares a new block taking numPhis phi arguments,
// returning ok=false if the declared-block table is already full.
func (s *BuildSession) DeclPlainBlock(numPhis uint32) (BlockRef, bool) {
	id, ok := s.builder.blockStore.declPlainBlock(numPhis)
	if !ok {
		return BlockRef{}, false
	}
	builderLog.Debugf("decl plain block phis=%d id=%d", numPhis, id)
	s.builder.subgraphDecls = append(s.builder.subgraphDecls, id)
	return BlockRef{id: id}, true
}

// DeclLoopHead declares a new loop head block taking numPhis phi
// arguments. A loop head is only ever defined via DefLoop.
func (s *BuildSession) DeclLoopHead(numPhis uint32) (BlockRef, bool) {
	id, ok := s.builder.blockStore.declLoopHead(numPhis)
	if !ok {
		return BlockRef{}, false
	}
	builderLog.Debugf("decl loop head block phis=%d id=%d", numPhis, id)
	s.builder.subgraphDecls = append(s.builder.subgraphDecls, id)
	return BlockRef{id: id}, true
}

func (s *BuildSession) defBlockImpl(block BlockRef) {
	cur := s.getCurBlock()
	if !cur.HasFinished() {
		panic(fmt.Sprintf("cogir: block %d was left without a terminal instruction before defining block %d",
			cur.ID(), block.ID()))
	}
	expected := s.nextSpecBlock()
	if expected.id != block.id {
		panic(fmt.Sprintf("cogir: blocks must be defined in declaration order: expected block %d next, got block %d",
			expected.ID(), block.ID()))
	}
	s.builder.blockStore.enterBlock(block.id, s.builder.instrStore.frontInstrID())
	s.curBlock = block
	s.subgraphEntered++
	s.emittedPhis = 0
}

// DefBlock opens block for instruction emission. block must be the
// next undefined block this session declared, and the session's
// current block must already be finished.
func (s *BuildSession) DefBlock(block BlockRef) {
	if s.getBlock(block).IsLoop() {
		panic(fmt.Sprintf("cogir: block %d is a loop head; open it with DefLoop, not DefBlock", block.ID()))
	}
	s.defBlockImpl(block)
}

// DefSubgraph opens a nested lexical scope sharing this session's
// current block, runs f against it, and folds the nested scope's
// ending block back in as this session's own current block. f must
// define every block it declared, and finish all of them but the last,
// before returning.
func DefSubgraph[R any](s *BuildSession, f func(*BuildSession) R) R {
	sub := newBuildSession(s.builder, s.curBlock, s.emittedPhis)
	r := f(sub)
	sub.assertComplete()
	s.curBlock = sub.curBlock
	s.emittedPhis = sub.emittedPhis
	return r
}

// DefLoop opens loopBlock, then runs f in a nested scope the same way
// DefSubgraph does, sealing loopBlock as LoopComplete once f's scope
// and its own last block are both finished.
func DefLoop[R any](s *BuildSession, loopBlock BlockRef, f func(*BuildSession) R) R {
	if !s.getBlock(loopBlock).IsLoop() {
		panic(fmt.Sprintf("cogir: block %d was not declared with DeclLoopHead", loopBlock.ID()))
	}
	s.defBlockImpl(loopBlock)
	return DefSubgraph(s, func(cs *BuildSession) R {
		result := f(cs)
		if !cs.getCurBlock().HasFinished() {
			panic(fmt.Sprintf("cogir: loop body closed without finishing block %d", cs.curBlock.ID()))
		}
		s.builder.blockStore.finishLoop(loopBlock.id)
		return result
	})
}

func (s *BuildSession) emitInstrRaw(op Op, operands []Defn) (InstrID, bool) {
	if s.getCurBlock().HasFinished() {
		panic(fmt.Sprintf("cogir: cannot emit %s into block %d, already finished", op, s.curBlock.ID()))
	}
	return s.builder.instrStore.emitInstr(op, operands)
}

func (s *BuildSession) emitEndRaw(op Op, operands []Defn, targets []target) (InstrID, bool) {
	if s.getCurBlock().HasFinished() {
		panic(fmt.Sprintf("cogir: cannot terminate block %d, already finished", s.curBlock.ID()))
	}
	for _, t := range targets {
		s.builder.blockStore.validateTerminalTarget(t.block)
	}
	id, ok := s.builder.instrStore.emitEnd(op, operands, targets)
	if !ok {
		return id, false
	}
	s.builder.blockStore.finishBlock(s.curBlock.id, id)
	for _, t := range targets {
		s.builder.blockStore.getBlock(t.block).incrInputEdges()
	}
	return id, true
}

// mustEmit wraps emitInstrRaw, turning stream exhaustion into a
// CapacityError panic: the convenience emit surface below always
// returns a value, never a sentinel, mirroring the original builder's
// own unconditional unwrap of its lower-level Option-returning calls.
func mustEmit[T IrType](s *BuildSession, op Op, operands []Defn) TypedDefn[T] {
	id, ok := s.emitInstrRaw(op, operands)
	if !ok {
		panic(CapacityError{Kind: "instruction stream"})
	}
	return newTypedDefn[T](id)
}

func mustEmitVoid(s *BuildSession, op Op, operands []Defn) {
	if _, ok := s.emitInstrRaw(op, operands); !ok {
		panic(CapacityError{Kind: "instruction stream"})
	}
}

func mustEmitEnd(s *BuildSession, op Op, operands []Defn, targets []target) {
	if _, ok := s.emitEndRaw(op, operands, targets); !ok {
		panic(CapacityError{Kind: "instruction stream"})
	}
}

func (s *BuildSession) checkPhiArity(ref BlockRef, phis []Defn) {
	blk := s.getBlock(ref)
	if uint32(len(phis)) != blk.NumPhis() {
		panic(fmt.Sprintf("cogir: block %d declared %d phi slot(s) but got %d phi argument(s)",
			blk.ID(), blk.NumPhis(), len(phis)))
	}
}

// EmitNop emits a no-op instruction, useful as a placeholder definition
// site or as padding around a loop back-edge.
func (s *BuildSession) EmitNop() { mustEmitVoid(s, NopOp{}, nil) }

func (s *BuildSession) EmitConstBool(v bool) TypedDefn[BoolTy] {
	return mustEmit[BoolTy](s, NewConstBool(v), nil)
}

func (s *BuildSession) EmitConstInt32(v uint32) TypedDefn[Int32Ty] {
	return mustEmit[Int32Ty](s, NewConstInt32(v), nil)
}

func (s *BuildSession) EmitConstInt64(v uint64) TypedDefn[Int64Ty] {
	return mustEmit[Int64Ty](s, NewConstInt64(v), nil)
}

// EmitCmp compares two same-typed operands, producing a Bool result.
func EmitCmp[T IrType](s *BuildSession, kind CmpKind, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return mustEmit[BoolTy](s, NewCmpOp(kind, tagOf[T]()), []Defn{lhs.Untyped(), rhs.Untyped()})
}

func EmitLt[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return EmitCmp(s, CmpLt, lhs, rhs)
}
func EmitLe[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return EmitCmp(s, CmpLe, lhs, rhs)
}
func EmitEq[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return EmitCmp(s, CmpEq, lhs, rhs)
}
func EmitNe[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return EmitCmp(s, CmpNe, lhs, rhs)
}
func EmitGe[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return EmitCmp(s, CmpGe, lhs, rhs)
}
func EmitGt[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[BoolTy] {
	return EmitCmp(s, CmpGt, lhs, rhs)
}

// EmitBini combines two same-typed operands into a same-typed result.
func EmitBini[T IrType](s *BuildSession, kind BiniKind, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return mustEmit[T](s, NewBiniOp(kind, tagOf[T]()), []Defn{lhs.Untyped(), rhs.Untyped()})
}

func EmitAdd[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return EmitBini(s, BiniAdd, lhs, rhs)
}
func EmitSub[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return EmitBini(s, BiniSub, lhs, rhs)
}
func EmitMul[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return EmitBini(s, BiniMul, lhs, rhs)
}
func EmitAnd[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return EmitBini(s, BiniAnd, lhs, rhs)
}
func EmitOr[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return EmitBini(s, BiniOr, lhs, rhs)
}
func EmitXor[T IrType](s *BuildSession, lhs, rhs TypedDefn[T]) TypedDefn[T] {
	return EmitBini(s, BiniXor, lhs, rhs)
}

// EmitPhi consumes one of the current block's declared phi slots. It
// panics if the block has none left: phi slot count is fixed at
// declaration time and is a protocol invariant, not a capacity limit.
func EmitPhi[T IrType](s *BuildSession) TypedDefn[T] {
	cur := s.getCurBlock()
	if cur.HasFinished() {
		panic(fmt.Sprintf("cogir: cannot emit Phi into block %d, already finished", cur.ID()))
	}
	if s.emittedPhis >= cur.NumPhis() {
		panic(fmt.Sprintf("cogir: block %d declared %d phi slot(s), all already emitted", cur.ID(), cur.NumPhis()))
	}
	s.emittedPhis++
	return mustEmit[T](s, PhiOp{Type: tagOf[T]()}, nil)
}

// Ret terminates the current block, returning val from the graph.
func Ret[T IrType](s *BuildSession, val TypedDefn[T]) {
	mustEmitEnd(s, RetOp{Type: tagOf[T]()}, []Defn{val.Untyped()}, nil)
}

// Jump terminates the current block with an unconditional branch to
// dest, supplying dest's declared phi arguments in order.
func (s *BuildSession) Jump(dest BlockRef, phis []Defn) {
	s.checkPhiArity(dest, phis)
	mustEmitEnd(s, JumpOp{}, nil, []target{{block: dest.id, phis: phis}})
}

// Branch terminates the current block with a conditional branch: cond
// selects whichTarget is taken, true first.
func (s *BuildSession) Branch(cond TypedDefn[BoolTy], trueDest BlockRef, truePhis []Defn, falseDest BlockRef, falsePhis []Defn) {
	s.checkPhiArity(trueDest, truePhis)
	s.checkPhiArity(falseDest, falsePhis)
	mustEmitEnd(s, BranchOp{}, []Defn{cond.Untyped()}, []target{
		{block: trueDest.id, phis: truePhis},
		{block: falseDest.id, phis: falsePhis},
	})
}

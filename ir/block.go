package ir

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BlockID identifies a block by its declaration order (0-based, dense).
// This ordering is not RPO: subgraph blocks are declared after their
// parent's own later blocks but are entered (and so ranked) inside the
// parent's control flow.
type BlockID uint32

// BlockRef is a reference to a declared block, handed back from a decl_*
// call and consumed by def_block/def_loop/jump/branch.
type BlockRef struct {
	id BlockID
}

func (r BlockRef) ID() BlockID { return r.id }

type blockVariantKind uint8

const (
	variantPlain blockVariantKind = iota
	variantLoop
	variantStart
)

type blockVariant struct {
	kind    blockVariantKind
	numPhis uint32
	loopNo  uint16
	startNo uint16
}

// BlockState is the totally ordered lifecycle every block passes
// through. LoopComplete only applies to Loop blocks.
type BlockState uint8

const (
	Declared BlockState = iota
	Entered
	Finished
	LoopComplete
)

// Block holds everything known about one declared block.
type Block struct {
	id         BlockID
	variant    blockVariant
	state      BlockState
	inputEdges uint32
	order      uint32
	firstInstr InstrID
	lastInstr  InstrID
}

func newBlock(id BlockID, v blockVariant) *Block {
	return &Block{id: id, variant: v, state: Declared, order: ^uint32(0), firstInstr: invalidInstrID, lastInstr: invalidInstrID}
}

func (b *Block) ID() BlockID { return b.id }

func (b *Block) NumPhis() uint32 { return b.variant.numPhis }

func (b *Block) IsStart() bool { return b.variant.kind == variantStart }
func (b *Block) IsLoop() bool  { return b.variant.kind == variantLoop }

func (b *Block) InputEdges() uint32   { return b.inputEdges }
func (b *Block) Order() uint32        { return b.order }
func (b *Block) FirstInstr() InstrID  { return b.firstInstr }
func (b *Block) LastInstr() InstrID   { return b.lastInstr }
func (b *Block) HasEntered() bool     { return b.state >= Entered }
func (b *Block) HasFinished() bool    { return b.state >= Finished }
func (b *Block) HasLoopComplete() bool { return b.state >= LoopComplete }

func (b *Block) incrInputEdges() { b.inputEdges++ }

func (b *Block) setEntered(order uint32, firstInstr InstrID) {
	if b.HasEntered() {
		panic(fmt.Sprintf("cogir: block %d entered twice", b.id))
	}
	b.state = Entered
	b.order = order
	b.firstInstr = firstInstr
}

func (b *Block) setFinished(lastInstr InstrID) {
	if !b.HasEntered() || b.HasFinished() {
		panic(fmt.Sprintf("cogir: block %d finished out of order", b.id))
	}
	b.state = Finished
	b.lastInstr = lastInstr
}

func (b *Block) setLoopComplete() {
	if !b.HasFinished() || !b.IsLoop() {
		panic(fmt.Sprintf("cogir: block %d cannot complete: not a finished loop", b.id))
	}
	b.state = LoopComplete
}

// maxDeclBlocks bounds the declared-block table the way InstrStore
// bounds the byte stream; both are capacity-exhaustion conditions
// surfaced as a sentinel rather than a panic.
const maxDeclBlocks = 0xf_ffff

// BlockStore is the table of every declared block, in declaration order,
// plus the RPO index recording the order blocks were Entered.
type BlockStore struct {
	declared  []*Block
	rpoIndex  []BlockID
	curBlock  BlockID
	numStarts uint16
	numLoops  uint16
	totalPhis uint32
}

var blockLog = logrus.WithField("component", "block_store")

func newBlockStore() *BlockStore {
	bs := &BlockStore{}
	firstID, ok := bs.declStartBlock()
	if !ok {
		panic("cogir: could not declare the start block")
	}
	bs.enterBlock(firstID, InstrID(0))
	return bs
}

func (bs *BlockStore) startBlockID() BlockID {
	return BlockID(0)
}

func (bs *BlockStore) totalBlocks() int { return len(bs.declared) }

func (bs *BlockStore) getBlock(id BlockID) *Block {
	return bs.declared[id]
}

func (bs *BlockStore) declBlock(v blockVariant) (BlockID, bool) {
	if len(bs.declared) >= maxDeclBlocks {
		return 0, false
	}
	id := BlockID(len(bs.declared))
	bs.declared = append(bs.declared, newBlock(id, v))
	return id, true
}

func (bs *BlockStore) declPlainBlock(numPhis uint32) (BlockID, bool) {
	id, ok := bs.declBlock(blockVariant{kind: variantPlain, numPhis: numPhis})
	if ok {
		bs.totalPhis += numPhis
	}
	return id, ok
}

func (bs *BlockStore) declStartBlock() (BlockID, bool) {
	startNo := bs.numStarts
	id, ok := bs.declBlock(blockVariant{kind: variantStart, startNo: startNo})
	if ok {
		bs.numStarts++
	}
	return id, ok
}

func (bs *BlockStore) declLoopHead(numPhis uint32) (BlockID, bool) {
	if bs.numLoops == ^uint16(0) {
		return 0, false
	}
	loopNo := bs.numLoops
	id, ok := bs.declBlock(blockVariant{kind: variantLoop, numPhis: numPhis, loopNo: loopNo})
	if ok {
		bs.numLoops++
		bs.totalPhis += numPhis
	}
	return id, ok
}

func (bs *BlockStore) enterBlock(id BlockID, firstInstr InstrID) {
	order := uint32(len(bs.rpoIndex))
	bs.getBlock(id).setEntered(order, firstInstr)
	bs.rpoIndex = append(bs.rpoIndex, id)
	bs.curBlock = id
	blockLog.Debugf("enter block id=%d first_instr=%s order=%d", id, firstInstr, order)
}

func (bs *BlockStore) finishBlock(id BlockID, lastInstr InstrID) {
	bs.getBlock(id).setFinished(lastInstr)
	blockLog.Debugf("finish block id=%d last_instr=%s", id, lastInstr)
}

func (bs *BlockStore) finishLoop(id BlockID) {
	bs.getBlock(id).setLoopComplete()
	blockLog.Debugf("loop block id=%d complete", id)
}

// validateTerminalTarget enforces the sole back-edge rule: a
// target already Entered must be a Loop head not yet LoopComplete.
// Anything else Entered (a Finished non-loop, or an already-sealed
// loop) is a contract violation the original builder never checked.
func (bs *BlockStore) validateTerminalTarget(id BlockID) {
	blk := bs.getBlock(id)
	if !blk.HasEntered() {
		return
	}
	if blk.IsLoop() && !blk.HasLoopComplete() {
		return
	}
	panic(fmt.Sprintf(
		"cogir: block %d already entered: only a loop head not yet LoopComplete may receive a back-edge",
		id))
}

// linkTerminalTarget validates and then records one incoming edge to id.
func (bs *BlockStore) linkTerminalTarget(id BlockID) {
	bs.validateTerminalTarget(id)
	bs.getBlock(id).incrInputEdges()
}

func (bs *BlockStore) iterBlocks() []*Block { return bs.declared }

// nextRPOBlock returns the block entered immediately after the one at
// rpo order, or ok=false if order is the last entered block. Grounded
// on the original source's next_rpo_block; here it is a safe lookup
// into rpoIndex rather than unchecked pointer arithmetic.
func (bs *BlockStore) nextRPOBlock(order uint32) (BlockID, bool) {
	next := order + 1
	if int(next) >= len(bs.rpoIndex) {
		return 0, false
	}
	return bs.rpoIndex[next], true
}

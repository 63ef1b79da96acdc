package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockStoreStartBlockAutoEntered(t *testing.T) {
	bs := newBlockStore()
	start := bs.getBlock(bs.startBlockID())
	require.True(t, start.IsStart())
	require.True(t, start.HasEntered())
	require.False(t, start.HasFinished())
	require.Equal(t, uint32(0), start.Order())
}

func TestBlockStoreDeclPlainBlockTracksPhis(t *testing.T) {
	bs := newBlockStore()
	id, ok := bs.declPlainBlock(3)
	require.True(t, ok)
	blk := bs.getBlock(id)
	require.Equal(t, uint32(3), blk.NumPhis())
	require.False(t, blk.IsLoop())
	require.Equal(t, uint32(3), bs.totalPhis)
}

func TestBlockStoreDeclLoopHead(t *testing.T) {
	bs := newBlockStore()
	id, ok := bs.declLoopHead(1)
	require.True(t, ok)
	blk := bs.getBlock(id)
	require.True(t, blk.IsLoop())
	require.Equal(t, uint16(0), blk.variant.loopNo)
}

func TestBlockLifecycleOrdering(t *testing.T) {
	bs := newBlockStore()
	id, ok := bs.declPlainBlock(0)
	require.True(t, ok)

	blk := bs.getBlock(id)
	require.False(t, blk.HasEntered())

	bs.enterBlock(id, InstrID(10))
	require.True(t, blk.HasEntered())
	require.False(t, blk.HasFinished())

	bs.finishBlock(id, InstrID(20))
	require.True(t, blk.HasFinished())
	require.False(t, blk.HasLoopComplete())
}

func TestBlockEnteredTwicePanics(t *testing.T) {
	bs := newBlockStore()
	id, _ := bs.declPlainBlock(0)
	bs.enterBlock(id, InstrID(0))
	require.Panics(t, func() { bs.enterBlock(id, InstrID(0)) })
}

func TestLoopCompleteRequiresFinishedLoop(t *testing.T) {
	bs := newBlockStore()
	plainID, _ := bs.declPlainBlock(0)
	bs.enterBlock(plainID, InstrID(0))
	bs.finishBlock(plainID, InstrID(1))
	require.Panics(t, func() { bs.finishLoop(plainID) }, "finishLoop on a non-loop block must panic")

	loopID, _ := bs.declLoopHead(1)
	require.Panics(t, func() { bs.finishLoop(loopID) }, "finishLoop before the loop is even entered must panic")
}

func TestValidateTerminalTargetAllowsUnenteredAndOpenLoop(t *testing.T) {
	bs := newBlockStore()
	unentered, _ := bs.declPlainBlock(0)
	require.NotPanics(t, func() { bs.validateTerminalTarget(unentered) })

	loopID, _ := bs.declLoopHead(0)
	bs.enterBlock(loopID, InstrID(0))
	require.NotPanics(t, func() { bs.validateTerminalTarget(loopID) }, "an entered, not-yet-complete loop head accepts a back-edge")
}

func TestValidateTerminalTargetRejectsFinishedNonLoop(t *testing.T) {
	bs := newBlockStore()
	id, _ := bs.declPlainBlock(0)
	bs.enterBlock(id, InstrID(0))
	bs.finishBlock(id, InstrID(1))
	require.Panics(t, func() { bs.validateTerminalTarget(id) })
}

func TestValidateTerminalTargetRejectsSealedLoop(t *testing.T) {
	bs := newBlockStore()
	id, _ := bs.declLoopHead(0)
	bs.enterBlock(id, InstrID(0))
	bs.finishBlock(id, InstrID(1))
	bs.finishLoop(id)
	require.Panics(t, func() { bs.validateTerminalTarget(id) })
}

func TestLinkTerminalTargetIncrementsInputEdges(t *testing.T) {
	bs := newBlockStore()
	id, _ := bs.declPlainBlock(0)
	require.Equal(t, uint32(0), bs.getBlock(id).InputEdges())
	bs.linkTerminalTarget(id)
	bs.linkTerminalTarget(id)
	require.Equal(t, uint32(2), bs.getBlock(id).InputEdges())
}

func TestNextRPOBlockWalksEntryOrder(t *testing.T) {
	bs := newBlockStore()
	a, _ := bs.declPlainBlock(0)
	b, _ := bs.declPlainBlock(0)
	bs.enterBlock(a, InstrID(0))
	bs.enterBlock(b, InstrID(1))

	startOrder := bs.getBlock(bs.startBlockID()).Order()
	next, ok := bs.nextRPOBlock(startOrder)
	require.True(t, ok)
	require.Equal(t, a, next)

	next, ok = bs.nextRPOBlock(bs.getBlock(a).Order())
	require.True(t, ok)
	require.Equal(t, b, next)

	_, ok = bs.nextRPOBlock(bs.getBlock(b).Order())
	require.False(t, ok)
}

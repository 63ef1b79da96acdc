package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIfElseWithPhiMerge builds a diamond CFG with a nested subgraph
// inside one arm, merging through two separate phi blocks.
func TestIfElseWithPhiMerge(t *testing.T) {
	var cID, eID BlockRef

	b := Build(func(s *BuildSession) {
		A, ok := s.DeclPlainBlock(0)
		require.True(t, ok)
		blockB, ok := s.DeclPlainBlock(0)
		require.True(t, ok)
		C, ok := s.DeclPlainBlock(1)
		require.True(t, ok)
		E, ok := s.DeclPlainBlock(1)
		require.True(t, ok)
		cID, eID = C, E

		a := s.EmitConstInt32(0)
		bb := s.EmitConstInt32(10)
		c := EmitEq(s, a, bb)
		s.Branch(c, A, nil, blockB, nil)

		s.DefBlock(A)
		one := s.EmitConstInt32(1)
		d := EmitAdd(s, a, one)
		s.Jump(C, []Defn{d.Untyped()})

		s.DefBlock(blockB)
		e := EmitAdd(s, a, bb)
		f := s.EmitConstInt32(9)
		g := EmitEq(s, e, f)

		DefSubgraph(s, func(ss *BuildSession) struct{} {
			D, ok := ss.DeclPlainBlock(0)
			require.True(t, ok)
			ss.Branch(g, C, []Defn{f.Untyped()}, D, nil)

			ss.DefBlock(D)
			one := ss.EmitConstInt32(1)
			i := EmitAdd(ss, f, one)
			ss.Jump(E, []Defn{i.Untyped()})
			return struct{}{}
		})

		s.DefBlock(C)
		h := EmitPhi[Int32Ty](s)
		s.Jump(E, []Defn{h.Untyped()})

		s.DefBlock(E)
		j := EmitPhi[Int32Ty](s)
		Ret(s, j)
	})

	// start, A, B, C, E, plus D declared inside B's nested subgraph: 6
	// blocks total.
	require.Equal(t, 6, b.blockStore.totalBlocks())
	for _, blk := range b.blockStore.iterBlocks() {
		require.True(t, blk.HasFinished(), "block %d must be finished", blk.ID())
	}
	require.Equal(t, uint32(2), b.blockStore.getBlock(cID.id).InputEdges())
	require.Equal(t, uint32(2), b.blockStore.getBlock(eID.id).InputEdges())
}

// TestSimpleLoop builds a graph where start jumps into a loop head, the
// loop body jumps back, and the exit arm returns the phi value.
func TestSimpleLoop(t *testing.T) {
	var headID BlockRef

	b := Build(func(s *BuildSession) {
		head, ok := s.DeclLoopHead(1)
		require.True(t, ok)
		headID = head

		a := s.EmitConstInt32(0)
		bb := s.EmitConstInt32(10)
		s.Jump(head, []Defn{a.Untyped()})

		DefLoop(s, head, func(ls *BuildSession) struct{} {
			body, ok := ls.DeclPlainBlock(0)
			require.True(t, ok)
			exit, ok := ls.DeclPlainBlock(0)
			require.True(t, ok)

			c := EmitPhi[Int32Ty](ls)
			d := EmitLt(ls, c, bb)
			ls.Branch(d, body, nil, exit, nil)

			ls.DefBlock(body)
			one := ls.EmitConstInt32(1)
			e := EmitAdd(ls, c, one)
			ls.Jump(head, []Defn{e.Untyped()})

			ls.DefBlock(exit)
			Ret(ls, c)
			return struct{}{}
		})
	})

	headBlock := b.blockStore.getBlock(headID.id)
	require.Equal(t, uint32(2), headBlock.InputEdges())
	require.True(t, headBlock.HasLoopComplete())
}

// TestPhiArityMismatchPanics checks that jumping to a block expecting a
// phi argument with no arguments supplied panics.
func TestPhiArityMismatchPanics(t *testing.T) {
	require.Panics(t, func() {
		Build(func(s *BuildSession) {
			target, ok := s.DeclPlainBlock(1)
			require.True(t, ok)
			s.Jump(target, nil)
		})
	})
}

// TestBackEdgeToNonLoopPanics checks that jumping back into an already
// finished, non-loop block panics.
func TestBackEdgeToNonLoopPanics(t *testing.T) {
	require.Panics(t, func() {
		Build(func(s *BuildSession) {
			A, ok := s.DeclPlainBlock(0)
			require.True(t, ok)
			bblk, ok := s.DeclPlainBlock(0)
			require.True(t, ok)

			s.Jump(A, nil)
			s.DefBlock(A)
			s.Jump(bblk, nil)
			s.DefBlock(bblk)
			// A is already Finished and not a loop: this back-edge must panic.
			s.Jump(A, nil)
		})
	})
}

func TestEmitIntoFinishedBlockPanics(t *testing.T) {
	require.Panics(t, func() {
		Build(func(s *BuildSession) {
			A, ok := s.DeclPlainBlock(0)
			require.True(t, ok)
			s.Jump(A, nil)
			s.EmitNop()
		})
	})
}

func TestDefBlockOutOfOrderPanics(t *testing.T) {
	require.Panics(t, func() {
		Build(func(s *BuildSession) {
			A, ok := s.DeclPlainBlock(0)
			require.True(t, ok)
			B, ok := s.DeclPlainBlock(0)
			require.True(t, ok)
			s.Jump(B, nil)
			s.DefBlock(B)
			_ = A
		})
	})
}

func TestDefLoopOnNonLoopBlockPanics(t *testing.T) {
	require.Panics(t, func() {
		Build(func(s *BuildSession) {
			A, ok := s.DeclPlainBlock(0)
			require.True(t, ok)
			s.Jump(A, nil)
			DefLoop(s, A, func(ls *BuildSession) struct{} { return struct{}{} })
		})
	})
}

func TestBuildSafeReturnsNilErrorOnSuccess(t *testing.T) {
	b, err := BuildSafe(func(s *BuildSession) {
		Ret(s, s.EmitConstInt32(1))
	})
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestBuildSafeWrapsCapacityError(t *testing.T) {
	b, err := BuildSafe(func(s *BuildSession) {
		panic(CapacityError{Kind: "test"})
	})
	require.Nil(t, b)
	require.Error(t, err)
	require.Contains(t, err.Error(), "test capacity exceeded")
}

func TestBuildSafeStillPanicsOnProtocolViolation(t *testing.T) {
	require.Panics(t, func() {
		BuildSafe(func(s *BuildSession) {
			target, ok := s.DeclPlainBlock(1)
			require.True(t, ok)
			s.Jump(target, nil)
		})
	})
}

func TestUnfinishedBlockFailsBuild(t *testing.T) {
	require.Panics(t, func() {
		Build(func(s *BuildSession) {
			_, ok := s.DeclPlainBlock(0)
			require.True(t, ok)
			// start block is left without a terminal.
		})
	})
}

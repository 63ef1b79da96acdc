package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"cogir/ir"
)

var (
	debugLog = flag.Bool("debug", false, "log block/instruction construction at debug level")
)

func init() {
	flag.Parse()
}

// buildIfElseGraph builds:
//
//	start:            cond := (1 < 2); branch cond -> then, else
//	then(no phis):    v := 9;  jump merge(v)
//	else(no phis):    v := 10; jump merge(v)
//	merge(1 phi):     r := phi<Int32>; ret r
func buildIfElseGraph() *ir.Builder {
	return ir.Build(func(s *ir.BuildSession) {
		thenBlock, ok := s.DeclPlainBlock(0)
		if !ok {
			panic("cogir demo: could not declare then block")
		}
		elseBlock, ok := s.DeclPlainBlock(0)
		if !ok {
			panic("cogir demo: could not declare else block")
		}
		mergeBlock, ok := s.DeclPlainBlock(1)
		if !ok {
			panic("cogir demo: could not declare merge block")
		}

		one := s.EmitConstInt32(1)
		two := s.EmitConstInt32(2)
		cond := ir.EmitLt(s, one, two)
		s.Branch(cond, thenBlock, nil, elseBlock, nil)

		s.DefBlock(thenBlock)
		v := s.EmitConstInt32(9)
		s.Jump(mergeBlock, []ir.Defn{v.Untyped()})

		s.DefBlock(elseBlock)
		v = s.EmitConstInt32(10)
		s.Jump(mergeBlock, []ir.Defn{v.Untyped()})

		s.DefBlock(mergeBlock)
		r := ir.EmitPhi[ir.Int32Ty](s)
		ir.Ret(s, r)
	})
}

// buildLoopGraph builds a simple counting loop:
//
//	start:       zero := 0; ten := 10; jump head(zero)
//	head(1 phi): i := phi<Int32>; done := (i < ten); branch done -> body, exit
//	body:        one := 1; next := i + one; jump head(next)   // back-edge
//	exit:        ret i
func buildLoopGraph() *ir.Builder {
	return ir.Build(func(s *ir.BuildSession) {
		head, ok := s.DeclLoopHead(1)
		if !ok {
			panic("cogir demo: could not declare loop head")
		}

		zero := s.EmitConstInt32(0)
		ten := s.EmitConstInt32(10)
		s.Jump(head, []ir.Defn{zero.Untyped()})

		ir.DefLoop(s, head, func(ls *ir.BuildSession) struct{} {
			body, ok := ls.DeclPlainBlock(0)
			if !ok {
				panic("cogir demo: could not declare loop body")
			}
			exit, ok := ls.DeclPlainBlock(0)
			if !ok {
				panic("cogir demo: could not declare exit block")
			}

			i := ir.EmitPhi[ir.Int32Ty](ls)
			done := ir.EmitLt(ls, i, ten)
			ls.Branch(done, body, nil, exit, nil)

			ls.DefBlock(body)
			one := ls.EmitConstInt32(1)
			next := ir.EmitAdd(ls, i, one)
			ls.Jump(head, []ir.Defn{next.Untyped()})

			ls.DefBlock(exit)
			ir.Ret(ls, i)
			return struct{}{}
		})
	})
}

// walkAndPrint exercises the reader API end to end: it walks every
// block and instruction of g via a GraphSession, printing each one.
func walkAndPrint(name string, g *ir.Graph) {
	fmt.Println(name + ":")
	fmt.Print(g.Format())
}

func main() {
	if *debugLog {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Recover turns a CapacityError (the one construction failure this
	// demo could plausibly hit) into a clean message instead of a
	// crash; any other panic is a protocol bug and is left to crash.
	defer func() {
		if r := recover(); r != nil {
			if capErr, ok := r.(ir.CapacityError); ok {
				fmt.Println(capErr.Error())
				os.Exit(1)
			}
			panic(r)
		}
	}()

	args := os.Args[len(os.Args)-flag.NArg():]
	which := "ifelse"
	if len(args) > 0 {
		which = args[0]
	}

	var b *ir.Builder
	switch which {
	case "ifelse":
		b = buildIfElseGraph()
	case "loop":
		b = buildLoopGraph()
	default:
		fmt.Println("Usage: cogir [-debug] [ifelse|loop]")
		return
	}

	b.DumpStats(which)
	walkAndPrint(which, b.IntoGraph())
}

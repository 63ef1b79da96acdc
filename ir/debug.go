package ir

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const formatterCacheSize = 256

// InstrFormatter renders instructions to their debug string
// ("opcode(inputs...)") and caches the result by instruction id.
// Re-formatting the same instruction offset is routine when a caller
// walks a block more than once while debugging, and formatting itself
// is non-trivial (it drains the operand iterator), so a small cache
// avoids doing that work twice for the same id.
type InstrFormatter struct {
	graph *Graph
	cache *lru.Cache[InstrID, string]
}

// NewInstrFormatter builds a formatter over g with the default cache
// size; the cache is purely a performance convenience and never
// changes what gets printed.
func NewInstrFormatter(g *Graph) *InstrFormatter {
	cache, err := lru.New[InstrID, string](formatterCacheSize)
	if err != nil {
		panic("cogir: invalid instruction formatter cache size")
	}
	return &InstrFormatter{graph: g, cache: cache}
}

// Format renders the instruction at id as "opcode(in0, in1, ...)",
// using the cached string if this id was already formatted.
func (f *InstrFormatter) Format(id InstrID) string {
	if s, ok := f.cache.Get(id); ok {
		return s
	}
	info := f.graph.instrStore.readInstrInfo(id)
	var b strings.Builder
	b.WriteString(info.Op().String())
	it := info.inputsIter()
	first := true
	for {
		d, ok := it.Next()
		if !ok {
			break
		}
		if first {
			b.WriteByte('(')
			first = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatUint(uint64(d.InstrID()), 10))
	}
	if !first {
		b.WriteByte(')')
	}
	s := b.String()
	f.cache.Add(id, s)
	return s
}

// Format walks the graph's blocks in reverse-postorder, rendering each
// block's instructions as an indented list of Format lines. Useful for
// test failure messages and the demo entry point; never load-bearing
// in construction or reading.
func (g *Graph) Format() string {
	formatter := NewInstrFormatter(g)
	var b strings.Builder
	enterSession(g, func(s *GraphSession) struct{} {
		for {
			blk := g.blockStore.getBlock(s.CurBlock().id)
			b.WriteString("block ")
			b.WriteString(strconv.FormatUint(uint64(blk.ID()), 10))
			b.WriteString(":\n")
			for {
				b.WriteString("  ")
				b.WriteString(formatter.Format(s.CurDefn().InstrID()))
				b.WriteByte('\n')
				if _, ok := s.NextDefn(); !ok {
					break
				}
			}
			if _, ok := s.NextBlock(); !ok {
				break
			}
		}
		return struct{}{}
	})
	return b.String()
}

package ir

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// InstrID is the byte offset of an instruction's opcode byte in the
// stream; it is the instruction's canonical identifier. Ids are dense in
// emission order but not contiguous, since instructions are
// variable-length.
type InstrID uint32

const invalidInstrID InstrID = ^InstrID(0)

func (id InstrID) String() string {
	if id == invalidInstrID {
		return "[Ins@invalid]"
	}
	return "[Ins@" + strconv.FormatUint(uint64(id), 10) + "]"
}

// maxInstrBytes is the instruction stream's hard capacity; 16 MiB
// mirrors the 0xff_ffff cap the original source used.
const maxInstrBytes = 0xff_ffff
const initInstrBytesCap = 256

var instrLog = logrus.WithField("component", "instr_store")

// InstrStore is the append-only byte stream backing every instruction in
// a build. It is write-only while a Builder owns it and read-only once
// handed to a Graph.
type InstrStore struct {
	bytes []byte
}

func newInstrStore() *InstrStore {
	return &InstrStore{bytes: make([]byte, 0, initInstrBytesCap)}
}

func (s *InstrStore) withinLimits() bool {
	return len(s.bytes) <= maxInstrBytes
}

func (s *InstrStore) frontInstrID() InstrID {
	return InstrID(len(s.bytes))
}

// Len reports the current length of the encoded stream, in bytes.
func (s *InstrStore) Len() int { return len(s.bytes) }

func (s *InstrStore) appendInstr(op Op, inputs []Defn) {
	s.bytes = append(s.bytes, byte(op.Opcode()))
	s.bytes = op.WriteTo(s.bytes)
	for _, in := range inputs {
		s.bytes = writeVarint(s.bytes, uint64(in.InstrID()))
	}
}

// target is one (block, phi-arguments) edge appended after a terminal's
// operands.
type target struct {
	block BlockID
	phis  []Defn
}

func (s *InstrStore) appendTargets(targets []target) {
	for _, t := range targets {
		debugPrintTarget(t)
		s.bytes = writeVarint(s.bytes, uint64(t.block))
		s.bytes = writeVarint(s.bytes, uint64(len(t.phis)))
		for _, p := range t.phis {
			s.bytes = writeVarint(s.bytes, uint64(p.InstrID()))
		}
	}
}

func debugPrintInstr(id InstrID, op Op, inputs []Defn) {
	if !instrLog.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	var b strings.Builder
	for i, d := range inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatUint(uint64(d.InstrID()), 10))
	}
	if b.Len() > 0 {
		instrLog.Debugf("emit %s - %s(%s)", id, op, b.String())
	} else {
		instrLog.Debugf("emit %s - %s", id, op)
	}
}

func debugPrintTarget(t target) {
	if !instrLog.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	var b strings.Builder
	for i, d := range t.phis {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(i))
		b.WriteString(":")
		b.WriteString(strconv.FormatUint(uint64(d.InstrID()), 10))
	}
	if b.Len() > 0 {
		instrLog.Debugf("  target %d - %s", t.block, b.String())
	} else {
		instrLog.Debugf("  target %d", t.block)
	}
}

// emitInstr encodes a non-terminal instruction and returns its id, or
// ok=false if doing so would exceed the stream's capacity. The bytes are
// still appended even on overflow: the store is left in a
// state where an immediate shutdown is safe but further building is not.
func (s *InstrStore) emitInstr(op Op, inputs []Defn) (InstrID, bool) {
	if !s.withinLimits() {
		return invalidInstrID, false
	}
	id := s.frontInstrID()
	debugPrintInstr(id, op, inputs)
	s.appendInstr(op, inputs)
	if !s.withinLimits() {
		return invalidInstrID, false
	}
	return id, true
}

// emitEnd encodes a terminal instruction and its target list.
func (s *InstrStore) emitEnd(op Op, inputs []Defn, targets []target) (InstrID, bool) {
	if !s.withinLimits() {
		return invalidInstrID, false
	}
	id := s.frontInstrID()
	debugPrintInstr(id, op, inputs)
	s.appendInstr(op, inputs)
	s.appendTargets(targets)
	if !s.withinLimits() {
		return invalidInstrID, false
	}
	return id, true
}

func (s *InstrStore) instrData(id InstrID) []byte {
	return s.bytes[uint32(id):]
}

// InstrInfo is a decoded instruction: its definition, its operation, and
// enough offset bookkeeping to lazily walk its inputs or find the next
// instruction.
type InstrInfo struct {
	data              []byte
	defn              Defn
	op                Op
	inputsOffset      uint32
	afterInputsOffset uint32
}

// readInstrInfo decodes the instruction at id. The inputs iterator is
// fully drained once up front solely to compute afterInputsOffset (the
// offset of the next instruction, or of the target list for a
// terminal); CurInputs() on the resulting InstrInfo/GraphSession still
// hands back a fresh, independent iterator to the caller.
func (s *InstrStore) readInstrInfo(id InstrID) InstrInfo {
	data := s.instrData(id)
	nb, op := decodeOp(data)
	info := InstrInfo{
		data:         data,
		defn:         Defn{id: id},
		op:           op,
		inputsOffset: uint32(nb),
	}
	it := info.inputsIter()
	for {
		if _, ok := it.Next(); !ok {
			break
		}
	}
	info.afterInputsOffset = info.inputsOffset + it.bytesRead
	return info
}

func (info InstrInfo) Defn() Defn { return info.defn }
func (info InstrInfo) Op() Op     { return info.op }

func (info InstrInfo) inputsData() []byte {
	return info.data[info.inputsOffset:]
}

func (info InstrInfo) inputsIter() *InstrInputs {
	return &InstrInputs{remaining: info.op.NumOperands(), bytes: info.inputsData()}
}

// nextDefn computes the id of the instruction immediately following this
// one in emission order. Terminals have no successor within the block
// (cross-block traversal is GraphSession.NextBlock's job, not a
// base cursor operation).
func (info InstrInfo) nextDefn() (Defn, bool) {
	if info.op.Terminal() {
		return Defn{}, false
	}
	nextOffset := uint32(info.defn.InstrID()) + info.afterInputsOffset
	return Defn{id: InstrID(nextOffset)}, true
}

// InstrInputs is a lazy, single-pass iterator over an instruction's
// input definitions. Decoding an element advances the iterator's own
// byte count but never mutates the GraphSession cursor that produced it.
type InstrInputs struct {
	remaining int
	bytesRead uint32
	bytes     []byte
}

func (it *InstrInputs) Next() (Defn, bool) {
	if it.remaining == 0 {
		return Defn{}, false
	}
	nb, v := readVarint(it.bytes)
	it.bytesRead += uint32(nb)
	it.remaining--
	it.bytes = it.bytes[nb:]
	return Defn{id: InstrID(v)}, true
}

package binspec

import (
	"github.com/Velocidex/ordereddict"
	"go.uber.org/zap"

	"github.com/wirebyte/binspec/internal/buffer"
)

// runState is the mutable state threaded through one program execution.
// Nested programs get their own state over a sub-slice of the buffer, so a
// parent never observes a child's cursor or endianness.
type runState struct {
	cur    *buffer.Cursor
	result *ordereddict.Dict
	stored *ordereddict.Dict
	endian Endian
	depth  int
}

func (st *runState) view() View {
	return View{result: st.result, stored: st.stored}
}

// Exec runs the program against data and returns the result mapping, with
// keys in decode order. Stored fields are absent from it. The buffer is
// read but never retained, copied or mutated, so one Spec may execute many
// buffers concurrently.
func (s *Spec) Exec(data []byte) (*ordereddict.Dict, error) {
	if s.err != nil {
		return nil, s.err
	}
	st := &runState{
		cur:    buffer.NewCursor(data),
		result: ordereddict.NewDict(),
		stored: ordereddict.NewDict(),
		endian: BigEndian,
	}
	if err := run(s, st); err != nil {
		return nil, err
	}
	return st.result, nil
}

// run executes every instruction of p against st in declaration order,
// stopping at the first error.
func run(p *Spec, st *runState) error {
	log := Logger()
	for i, in := range p.instrs {
		if err := in.exec(st); err != nil {
			log.Debug("instruction failed",
				zap.Int("depth", st.depth),
				zap.Int("index", i),
				zap.String("op", in.op()),
				zap.String("name", in.label()),
				zap.Int("byte", st.cur.BytePos()),
				zap.Int("bit", st.cur.BitOffset()),
				zap.Error(err),
			)
			return err
		}
		log.Debug("instruction",
			zap.Int("depth", st.depth),
			zap.Int("index", i),
			zap.String("op", in.op()),
			zap.String("name", in.label()),
			zap.Int("byte", st.cur.BytePos()),
			zap.Int("bit", st.cur.BitOffset()),
		)
	}
	return nil
}

// runNested executes a nested program against the remainder of the buffer.
// The child sees the bytes from the parent's current byte offset onward,
// starts byte-aligned in big-endian order with empty hidden storage, and
// its visible results merge into the parent result in decode order. A name
// collision overwrites the parent entry without moving it, so the result
// keeps first-seen key order. The parent cursor stays put no matter how
// much the child consumes.
func (st *runState) runNested(p *Spec) error {
	if p.err != nil {
		return p.err
	}
	child := &runState{
		cur:    buffer.NewCursor(st.cur.Tail()),
		result: ordereddict.NewDict(),
		stored: ordereddict.NewDict(),
		endian: BigEndian,
		depth:  st.depth + 1,
	}
	if err := run(p, child); err != nil {
		return err
	}
	for _, k := range child.result.Keys() {
		if v, ok := child.result.Get(k); ok {
			st.result.Update(k, v)
		}
	}
	return nil
}

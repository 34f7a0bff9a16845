// package stats counts operations and their latencies
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/rodaine/table"
)

type Op struct {
	count uint64
	nanos uint64
}

func (op *Op) Record(start time.Time) {
	op.count++
	op.nanos += uint64(time.Since(start).Nanoseconds())
}

func (op *Op) Reset() {
	op.count = 0
	op.nanos = 0
}

func (op Op) Count() uint64 {
	return op.count
}

func (op Op) MicrosPerOp() float64 {
	if op.count == 0 {
		return 0
	}
	return float64(op.nanos) / float64(op.count) / 1e3
}

// Set is a fixed group of named counters.
type Set struct {
	names []string
	ops   []Op
}

func NewSet(names ...string) *Set {
	return &Set{names: names, ops: make([]Op, len(names))}
}

func (s *Set) Op(i int) *Op {
	return &s.ops[i]
}

func (s *Set) Reset() {
	for i := range s.ops {
		s.ops[i].Reset()
	}
}

// WriteTable prints one row per operation that ran, then a total row.
func (s *Set) WriteTable(w io.Writer) {
	tbl := table.New("op", "count", "us")
	tbl.WithWriter(w)
	var total Op
	for i, name := range s.names {
		op := s.ops[i]
		if op.count == 0 {
			continue
		}
		total.count += op.count
		total.nanos += op.nanos
		tbl.AddRow(name, op.count, fmt.Sprintf("%0.1f us/op", op.MicrosPerOp()))
	}
	tbl.AddRow("total", total.count, fmt.Sprintf("%0.1f us", float64(total.nanos)/1e3))
	tbl.Print()
}

package flat

import (
	"fmt"
	"math/big"

	"hwflat/internal/ir"
)

// ValueID is the dense flat identity of a value.
type ValueID uint32

func (v ValueID) String() string { return fmt.Sprintf("v%d", uint32(v)) }

// Value is a flattened wire. Type is nil for synthetic values such as the
// decision of a condition check. Cell is the runtime storage slot; it stays
// nil until an execution driver writes it.
type Value struct {
	Type ir.DataType
	Cell *big.Int
}

// Direction tells whether a channel feeds the design or drains it.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Channel binds a top-level port to its flat value. Signal is the port's
// position in the top module's input or output list.
type Channel struct {
	Value  ValueID
	Signal int
	Dir    Direction
}

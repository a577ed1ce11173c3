// Package artifact stores flattened programs as msgpack snapshots that an
// external runtime can load. Value cells are not stored: a snapshot is taken
// before any evaluation.
package artifact

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"hwflat/internal/flat"
)

// SchemaVersion is bumped whenever the snapshot layout changes.
const SchemaVersion uint16 = 1

// Snapshot is the serialized form of a flat.Program.
type Snapshot struct {
	Schema   uint16
	Top      string
	Values   []ValueRec
	Events   []EventRec
	Deps     []DepRec
	Channels []ChannelRec
}

// ValueRec is one flat value. Type is nil for synthetic values.
type ValueRec struct {
	Type  *TypeRec
	Guard GuardRec
}

// TypeRec is a data type tree.
type TypeRec struct {
	Kind   string     // uint, clock, array, struct
	Width  int        `msgpack:",omitempty"`
	Len    int        `msgpack:",omitempty"`
	Elem   *TypeRec   `msgpack:",omitempty"`
	Fields []FieldRec `msgpack:",omitempty"`
}

// FieldRec is a struct member.
type FieldRec struct {
	Name string
	Type *TypeRec
}

// GuardRec is a guard tree. Value is set for refs, Args for and/or/not.
type GuardRec struct {
	Kind  string
	Value uint32     `msgpack:",omitempty"`
	Args  []GuardRec `msgpack:",omitempty"`
}

// EventRec is one event with the guard it was emitted under. In and Out
// carry the kind's value lists: listen (-, values), write (values, -),
// ldreg (-, regs), streg (values, regs), comb (in, out), condcheck
// (conds, -), select (candidates, -).
type EventRec struct {
	Kind       string
	Guard      GuardRec
	Op         int    `msgpack:",omitempty"`
	Name       string `msgpack:",omitempty"`
	In         []uint32
	Out        []uint32
	Channels   []int  `msgpack:",omitempty"`
	Result     uint32 `msgpack:",omitempty"`
	Decision   uint32 `msgpack:",omitempty"`
	OneHot     bool   `msgpack:",omitempty"`
	HasDefault bool   `msgpack:",omitempty"`
}

// DepRec is an ordering edge between events.
type DepRec struct {
	From, To int
}

// ChannelRec is a top-level port binding.
type ChannelRec struct {
	Value  uint32
	Signal int
	Out    bool
}

// Encode writes p as a msgpack snapshot.
func Encode(w io.Writer, top string, p *flat.Program) error {
	snap, err := FromProgram(top, p)
	if err != nil {
		return err
	}
	if err := encodeRaw(w, snap); err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	return nil
}

// Decode reads a snapshot and rebuilds the program. Events are returned
// uninitialized.
func Decode(r io.Reader) (string, *flat.Program, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return "", nil, errors.Wrap(err, "decode snapshot")
	}
	if snap.Schema != SchemaVersion {
		return "", nil, errors.Errorf("snapshot schema %d, want %d", snap.Schema, SchemaVersion)
	}
	p, err := snap.Program()
	if err != nil {
		return "", nil, err
	}
	return snap.Top, p, nil
}

// WriteFile stores the snapshot at path, replacing any previous file
// atomically.
func WriteFile(path, top string, p *flat.Program) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	f, err := os.CreateTemp(dir, "tmp-*.mp")
	if err != nil {
		return errors.Wrap(err, "create snapshot")
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()
	if err = Encode(f, top, p); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	return errors.Wrap(os.Rename(f.Name(), path), "install snapshot")
}

// ReadFile loads the snapshot stored at path.
func ReadFile(path string) (string, *flat.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()
	top, p, err := Decode(f)
	if err != nil {
		return "", nil, errors.Wrap(err, path)
	}
	return top, p, nil
}

func encodeRaw(w io.Writer, snap *Snapshot) error {
	return msgpack.NewEncoder(w).Encode(snap)
}

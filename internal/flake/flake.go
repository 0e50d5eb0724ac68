// Package flake implements the 64-bit sortable identifier scheme used for
// every entity in the blog (users, posts, comments). IDs encode their own
// creation time, so records never store a separate created_at column: the
// timestamp is recovered by decoding the ID against the epoch of the entity
// type that minted it.
//
// Bit layout, most significant first:
//
//	42 bits  milliseconds since a per-entity epoch
//	 5 bits  worker id   (constant 1 — single-writer deployment)
//	 5 bits  process id  (constant 0)
//	12 bits  rolling increment shared by all entity types in the process
//
// The increment is NOT reset when the timestamp advances; it only wraps after
// reaching 4095. Two IDs minted in the same millisecond are therefore ordered
// by increment alone, and a wrap inside one millisecond can order a newer ID
// below an older one. That inversion is part of the wire contract and is
// pinned by tests rather than corrected here.
//
// IDs travel as decimal strings because 2^63-scale values do not survive
// JSON consumers that parse numbers into 53-bit floats.
package flake

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

// Per-entity epochs, in Unix milliseconds. Decoding an ID requires the epoch
// of the entity type that minted it.
const (
	PostEpoch    int64 = 1_609_459_200_000
	UserEpoch    int64 = 1_609_500_200_000
	CommentEpoch int64 = 1_609_459_200_000
)

const (
	timestampShift = 22
	workerIDShift  = 17
	processIDShift = 12

	fieldMask     = 0x1F  // worker id / process id (5 bits each)
	incrementMask = 0xFFF // increment (12 bits)
	maxIncrement  = 4095
)

// Errors returned by Generator.Next and Decode.
var (
	// ErrZeroTimestamp is returned when Next is called with the zero time.
	ErrZeroTimestamp = errors.New("flake: timestamp is zero")

	// ErrBeforeEpoch is returned when the supplied timestamp predates the
	// epoch, which would underflow the 42-bit field.
	ErrBeforeEpoch = errors.New("flake: timestamp before epoch")

	// ErrMalformedID is returned by Decode for inputs that are not a
	// base-10 unsigned 64-bit integer.
	ErrMalformedID = errors.New("flake: malformed id")
)

// Generator mints flake IDs. It owns the process-wide increment counter, so
// exactly one Generator must be constructed per process and shared by every
// call site that mints IDs, regardless of entity type.
//
// Uniqueness holds only within a single logical writer process: all writers
// stamp worker id 1, so two processes minting concurrently can collide. The
// deployment model assumes one active writer per entity-type epoch; this is
// a documented scaling limit, not something the generator guards against.
//
// Generator is safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	increment uint64

	workerID  uint64
	processID uint64
}

// NewGenerator returns a Generator with the fixed worker id 1 and process
// id 0 and the increment at zero.
func NewGenerator() *Generator {
	return &Generator{workerID: 1, processID: 0}
}

// Next mints a new ID for the given wall-clock time and entity epoch,
// returned as a decimal string. The increment wraps to 0 once it reaches
// 4095; it is never reset on timestamp change.
func (g *Generator) Next(now time.Time, epoch int64) (string, error) {
	if now.IsZero() {
		return "", ErrZeroTimestamp
	}
	millis := now.UnixMilli()
	if millis < epoch {
		return "", ErrBeforeEpoch
	}

	g.mu.Lock()
	if g.increment >= maxIncrement {
		g.increment = 0
	}
	inc := g.increment
	g.increment++
	g.mu.Unlock()

	id := uint64(millis-epoch)<<timestampShift |
		g.workerID<<workerIDShift |
		g.processID<<processIDShift |
		inc
	return strconv.FormatUint(id, 10), nil
}

// ID holds the decoded fields of a flake identifier.
type ID struct {
	// Timestamp is the creation time in Unix milliseconds, reconstructed
	// from the encoded offset plus the epoch supplied to Decode.
	Timestamp int64
	WorkerID  uint64
	ProcessID uint64
	Increment uint64
}

// Time returns the creation time as a time.Time in UTC.
func (id ID) Time() time.Time {
	return time.UnixMilli(id.Timestamp).UTC()
}

// Decode splits a flake ID string into its fields. It is a pure function:
// the caller must supply the epoch the ID was minted against. Any string
// that parses as an unsigned 64-bit decimal integer decodes successfully.
func Decode(s string, epoch int64) (ID, error) {
	raw, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return ID{}, ErrMalformedID
	}
	return ID{
		Timestamp: int64(raw>>timestampShift) + epoch,
		WorkerID:  (raw >> workerIDShift) & fieldMask,
		ProcessID: (raw >> processIDShift) & fieldMask,
		Increment: raw & incrementMask,
	}, nil
}

// CreatedAt is a convenience wrapper around Decode for the common case of
// only needing the embedded creation timestamp in Unix milliseconds.
func CreatedAt(s string, epoch int64) (int64, error) {
	id, err := Decode(s, epoch)
	if err != nil {
		return 0, err
	}
	return id.Timestamp, nil
}

package flake

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func mustNext(t *testing.T, g *Generator, now time.Time, epoch int64) string {
	t.Helper()
	id, err := g.Next(now, epoch)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return id
}

func asUint(t *testing.T, id string) uint64 {
	t.Helper()
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		t.Fatalf("id %q is not a uint64: %v", id, err)
	}
	return v
}

func TestNext_RejectsZeroAndPreEpochTimestamps(t *testing.T) {
	g := NewGenerator()

	if _, err := g.Next(time.Time{}, PostEpoch); err != ErrZeroTimestamp {
		t.Fatalf("zero time: want ErrZeroTimestamp, got %v", err)
	}
	before := time.UnixMilli(PostEpoch - 1)
	if _, err := g.Next(before, PostEpoch); err != ErrBeforeEpoch {
		t.Fatalf("pre-epoch time: want ErrBeforeEpoch, got %v", err)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	g := NewGenerator()
	now := time.UnixMilli(PostEpoch + 123_456_789)

	id := mustNext(t, g, now, PostEpoch)
	dec, err := Decode(id, PostEpoch)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Timestamp != now.UnixMilli() {
		t.Fatalf("timestamp: want %d, got %d", now.UnixMilli(), dec.Timestamp)
	}
	if dec.WorkerID != 1 || dec.ProcessID != 0 {
		t.Fatalf("worker/process: want 1/0, got %d/%d", dec.WorkerID, dec.ProcessID)
	}
	if dec.Increment != 0 {
		t.Fatalf("first increment: want 0, got %d", dec.Increment)
	}
	if got := dec.Time(); !got.Equal(now.UTC()) {
		t.Fatalf("Time(): want %v, got %v", now.UTC(), got)
	}
}

func TestDecode_DifferentEpochsShiftTimestamp(t *testing.T) {
	g := NewGenerator()
	now := time.UnixMilli(UserEpoch + 1000)

	id := mustNext(t, g, now, UserEpoch)
	dec, err := Decode(id, UserEpoch)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Timestamp != UserEpoch+1000 {
		t.Fatalf("user-epoch timestamp: want %d, got %d", UserEpoch+1000, dec.Timestamp)
	}

	// Decoding against the wrong epoch shifts the recovered time by the
	// epoch delta; the caller owns supplying the right one.
	wrong, err := Decode(id, PostEpoch)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := PostEpoch + 1000; wrong.Timestamp != want {
		t.Fatalf("wrong-epoch timestamp: want %d, got %d", want, wrong.Timestamp)
	}
}

func TestDecode_RejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"", "abc", "-5", "12.5", "18446744073709551616"} {
		if _, err := Decode(s, PostEpoch); err != ErrMalformedID {
			t.Fatalf("Decode(%q): want ErrMalformedID, got %v", s, err)
		}
	}
}

func TestNext_StrictlyIncreasingAcrossTimestamps(t *testing.T) {
	g := NewGenerator()

	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		now := time.UnixMilli(PostEpoch + int64(i))
		id := asUint(t, mustNext(t, g, now, PostEpoch))
		if id <= prev {
			t.Fatalf("id %d at step %d not greater than predecessor %d", id, i, prev)
		}
		prev = id
	}
}

func TestNext_SameMillisecondOrderedByIncrement(t *testing.T) {
	g := NewGenerator()
	now := time.UnixMilli(PostEpoch + 42)

	prev := uint64(0)
	for i := 0; i < 100; i++ {
		id := asUint(t, mustNext(t, g, now, PostEpoch))
		if i > 0 && id != prev+1 {
			t.Fatalf("same-ms ids must be consecutive: prev=%d got=%d", prev, id)
		}
		prev = id
	}
}

// The increment counter wraps at 4095 without consulting the timestamp. When
// that happens inside a single millisecond the freshly minted ID sorts below
// its immediate predecessors. This is the documented behavior of the ID
// scheme, so the test asserts the inversion instead of strict monotonicity.
func TestNext_RolloverResetsIncrement(t *testing.T) {
	g := NewGenerator()
	now := time.UnixMilli(PostEpoch + 7)

	var last uint64
	for i := 0; i < maxIncrement; i++ {
		last = asUint(t, mustNext(t, g, now, PostEpoch))
	}
	dec, err := Decode(strconv.FormatUint(last, 10), PostEpoch)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Increment != maxIncrement-1 {
		t.Fatalf("pre-rollover increment: want %d, got %d", maxIncrement-1, dec.Increment)
	}

	wrapped := asUint(t, mustNext(t, g, now, PostEpoch))
	wdec, err := Decode(strconv.FormatUint(wrapped, 10), PostEpoch)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if wdec.Increment != 0 {
		t.Fatalf("post-rollover increment: want 0, got %d", wdec.Increment)
	}
	if wrapped >= last {
		t.Fatalf("expected ordering inversion after rollover: wrapped=%d last=%d", wrapped, last)
	}
}

func TestNext_ConcurrentCallersMintUniqueIDs(t *testing.T) {
	g := NewGenerator()
	now := time.UnixMilli(PostEpoch + 99)

	const (
		workers = 8
		perWork = 64
	)
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWork)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				id, err := g.Next(now, PostEpoch)
				if err != nil {
					t.Errorf("Next: %v", err)
					return
				}
				mu.Lock()
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %s", id)
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWork {
		t.Fatalf("want %d unique ids, got %d", workers*perWork, len(seen))
	}
}

package testutil

import (
	"testing"
	"time"
)

func TestFakeClock_Advance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	clock.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestTestContext_HasDeadline(t *testing.T) {
	ctx := TestContext(t)
	if _, ok := ctx.Deadline(); !ok {
		t.Error("TestContext should have a deadline")
	}
}

func TestMustParseUUID_Valid(t *testing.T) {
	id := MustParseUUID("00000000-0000-0000-0000-000000000001")
	if id.String() != "00000000-0000-0000-0000-000000000001" {
		t.Errorf("unexpected uuid: %s", id)
	}
}

func TestMustParseUUID_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid uuid")
		}
	}()
	MustParseUUID("not-a-uuid")
}

func TestMustParseTime_Valid(t *testing.T) {
	ts := MustParseTime("2026-03-01T09:30:00Z")
	want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("MustParseTime = %v, want %v", ts, want)
	}
}

func TestMustParseTime_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid timestamp")
		}
	}()
	MustParseTime("03/01/2026")
}

package state

import (
	"sync"
	"testing"
)

func TestTempDataLifecycle(t *testing.T) {
	m := NewMemoryManager()
	const userID = int64(1)

	if _, ok := m.GetTemp(userID, "name"); ok {
		t.Fatal("fresh manager must hold no data")
	}

	m.SetTemp(userID, "name", "Taras")
	m.SetTemp(userID, "seats", 2)
	m.SetTemp(userID, "ride_id", int64(7))

	if v, ok := m.GetTempString(userID, "name"); !ok || v != "Taras" {
		t.Fatalf("GetTempString = %q, %v", v, ok)
	}
	if v, ok := m.GetTempInt(userID, "seats"); !ok || v != 2 {
		t.Fatalf("GetTempInt = %d, %v", v, ok)
	}
	if v, ok := m.GetTempInt64(userID, "ride_id"); !ok || v != 7 {
		t.Fatalf("GetTempInt64 = %d, %v", v, ok)
	}

	// Wrong type assertion reports false.
	if _, ok := m.GetTempInt(userID, "name"); ok {
		t.Fatal("string value must not assert as int")
	}

	m.ClearTemp(userID, "seats")
	if _, ok := m.GetTemp(userID, "seats"); ok {
		t.Fatal("cleared key must be gone")
	}
	if _, ok := m.GetTemp(userID, "name"); !ok {
		t.Fatal("other keys must survive ClearTemp")
	}
}

func TestTempSnapshotIsACopy(t *testing.T) {
	m := NewMemoryManager()
	const userID = int64(2)

	m.SetTemp(userID, "direction", "UA -> CZ")
	snap := m.TempSnapshot(userID)
	snap["direction"] = "mutated"

	if v, _ := m.GetTempString(userID, "direction"); v != "UA -> CZ" {
		t.Fatalf("snapshot mutation leaked into the session: %q", v)
	}
}

func TestStateTransitions(t *testing.T) {
	m := NewMemoryManager()
	const userID = int64(3)

	if m.InProgress(userID) {
		t.Fatal("fresh user must be idle")
	}
	if st := m.GetState(userID); st != StateIdle {
		t.Fatalf("state = %q, want idle", st)
	}

	m.SetState(userID, State("booking:from"))
	if !m.InProgress(userID) {
		t.Fatal("user with a state must be in progress")
	}
	if !m.HasState(userID) {
		t.Fatal("HasState must report true")
	}

	m.ClearState(userID)
	if m.InProgress(userID) {
		t.Fatal("ClearState must return the user to idle")
	}

	m.SetTemp(userID, "k", "v")
	m.SetState(userID, State("booking:to"))
	m.Clear(userID)
	if m.InProgress(userID) {
		t.Fatal("Clear must drop the whole session")
	}
	if _, ok := m.GetTemp(userID, "k"); ok {
		t.Fatal("Clear must drop temp data")
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, State("booking:from"))
	m.SetTemp(1, "name", "A")

	if m.InProgress(2) {
		t.Fatal("second user must stay idle")
	}
	if _, ok := m.GetTemp(2, "name"); ok {
		t.Fatal("temp data must not leak between users")
	}
}

func TestSameUserInterleavedWritesLastWins(t *testing.T) {
	m := NewMemoryManager()
	const (
		userID = int64(9)
		rounds = 200
	)
	states := []State{"booking:from", "booking:to"}

	// Two writers race on one conversation id. Values must stay whole:
	// the winner is undefined, a torn read is a bug.
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				m.SetState(userID, states[w])
				m.SetTemp(userID, "seats", w+1)
				snap := m.TempSnapshot(userID)
				if v, ok := snap["seats"].(int); ok && v != 1 && v != 2 {
					t.Errorf("torn bag value in snapshot: %d", v)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	st := m.GetState(userID)
	if st != states[0] && st != states[1] {
		t.Fatalf("final state %q is neither written value", st)
	}
	seats, ok := m.GetTempInt(userID, "seats")
	if !ok || (seats != 1 && seats != 2) {
		t.Fatalf("final bag value torn: %d (present=%v)", seats, ok)
	}
	if !m.InProgress(userID) {
		t.Fatal("user must still be in progress after the race")
	}
}

func TestConcurrentSessions(t *testing.T) {
	m := NewMemoryManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 16; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetState(id, State("booking:from"))
			m.SetTemp(id, "seats", int(id))
			_ = m.TempSnapshot(id)
			_ = m.InProgress(id)
			m.Clear(id)
		}(i)
	}
	wg.Wait()
}

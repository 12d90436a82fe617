package access

import (
	"sync"
	"testing"
)

func TestGrantRevokeLifecycle(t *testing.T) {
	s := NewService()
	const userID = int64(42)

	if s.IsManager(userID) {
		t.Fatal("fresh service must not know any managers")
	}

	s.Grant(userID)
	if !s.IsManager(userID) {
		t.Fatal("granted user must be a manager")
	}
	if s.Count() != 1 {
		t.Fatalf("count = %d, want 1", s.Count())
	}

	// Granting twice is a no-op.
	s.Grant(userID)
	if s.Count() != 1 {
		t.Fatalf("count after double grant = %d, want 1", s.Count())
	}

	if !s.Revoke(userID) {
		t.Fatal("revoking a manager must report true")
	}
	if s.IsManager(userID) {
		t.Fatal("revoked user must lose the role")
	}
	if s.Revoke(userID) {
		t.Fatal("revoking a non-manager must report false")
	}
}

func TestRoleIsPerUser(t *testing.T) {
	s := NewService()
	s.Grant(1)
	if s.IsManager(2) {
		t.Fatal("role must not leak to other users")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewService()
	var wg sync.WaitGroup
	for i := int64(0); i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Grant(id)
			_ = s.IsManager(id)
			_ = s.Revoke(id)
		}(i)
	}
	wg.Wait()
	if s.Count() != 0 {
		t.Fatalf("count = %d, want 0", s.Count())
	}
}

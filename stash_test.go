package pathoram

import (
	"bytes"
	"testing"
)

func TestStashOrderedOperations(t *testing.T) {
	var s stash

	if s.len() != 0 {
		t.Errorf("empty stash len = %d", s.len())
	}
	if s.get(3) != nil {
		t.Error("get on empty stash should return nil")
	}

	// Inserts out of order land in sorted position
	s.put(7, []byte{7})
	s.put(2, []byte{2})
	s.put(5, []byte{5})
	s.put(0, []byte{0})

	wantOrder := []int{0, 2, 5, 7}
	if s.len() != len(wantOrder) {
		t.Fatalf("len = %d, want %d", s.len(), len(wantOrder))
	}
	for i, id := range wantOrder {
		if s.entries[i].id != id {
			t.Errorf("entries[%d].id = %d, want %d", i, s.entries[i].id, id)
		}
	}

	// Replace keeps a single entry per ID
	s.put(5, []byte{55})
	if s.len() != 4 {
		t.Errorf("len after replace = %d, want 4", s.len())
	}
	if !bytes.Equal(s.get(5), []byte{55}) {
		t.Errorf("get(5) = %v, want [55]", s.get(5))
	}

	s.remove(2)
	if s.get(2) != nil {
		t.Error("get(2) after remove should return nil")
	}
	if s.len() != 3 {
		t.Errorf("len after remove = %d, want 3", s.len())
	}

	// Removing an absent ID is a no-op
	s.remove(100)
	if s.len() != 3 {
		t.Errorf("len after removing absent ID = %d, want 3", s.len())
	}
}

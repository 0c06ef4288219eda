package util

import "testing"

func TestOwnerNamespace(t *testing.T) {
	id := "5f0c1f0e-9a43-4c43-8d2e-1b7f2c9d0a11"
	got := OwnerNamespace(id)
	if got != OwnerNamespace(" "+id+" ") {
		t.Fatalf("expected surrounding space to be ignored")
	}
	if got == OwnerNamespace("another-owner") {
		t.Fatalf("expected distinct owners to get distinct namespaces")
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("namespace contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

package keyring

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringLifecycle(t *testing.T) {
	keyring.MockInit()

	id := "0123456789abcdef0123456789abcdef"
	if HasPassword(id) {
		t.Fatal("expected no password before save")
	}
	if _, err := GetPassword(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPassword() error = %v, want ErrNotFound", err)
	}

	if err := SavePassword(id, []byte("hunter2")); err != nil {
		t.Fatalf("SavePassword() error = %v", err)
	}
	if !HasPassword(id) {
		t.Fatal("expected password after save")
	}
	got, err := GetPassword(id)
	if err != nil {
		t.Fatalf("GetPassword() error = %v", err)
	}
	if string(got) != "hunter2" {
		t.Errorf("GetPassword() = %q, want %q", got, "hunter2")
	}

	if err := DeletePassword(id); err != nil {
		t.Fatalf("DeletePassword() error = %v", err)
	}
	if err := DeletePassword(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePassword() error = %v, want ErrNotFound", err)
	}
}

func TestSaveRequiresID(t *testing.T) {
	keyring.MockInit()
	if err := SavePassword("", []byte("x")); err == nil {
		t.Error("expected error for empty container id")
	}
}

func TestMockErrorPropagates(t *testing.T) {
	boom := errors.New("keyring unavailable")
	keyring.MockInitWithError(boom)
	t.Cleanup(keyring.MockInit)

	if err := SavePassword("id", []byte("x")); !errors.Is(err, boom) {
		t.Errorf("SavePassword() error = %v, want %v", err, boom)
	}
	if _, err := GetPassword("id"); !errors.Is(err, boom) {
		t.Errorf("GetPassword() error = %v, want %v", err, boom)
	}
}

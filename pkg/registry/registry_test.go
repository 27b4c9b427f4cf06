package registry

import (
	"errors"
	"fmt"
	"testing"
)

func TestRegisterAndCreate(t *testing.T) {
	r := New(nil)
	r.Register("terminal", func(pid string) (Panel, error) {
		return Panel{Title: "Terminal " + pid, Content: pid}, nil
	})

	p, err := r.Create("terminal", "terminal:2")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Title != "Terminal terminal:2" {
		t.Errorf("unexpected title %q", p.Title)
	}

	if _, err := r.Create("editor", "editor:1"); !errors.Is(err, ErrUnknownPanel) {
		t.Errorf("expected ErrUnknownPanel, got %v", err)
	}
}

func TestCreateWrapsFactoryError(t *testing.T) {
	r := New(nil)
	boom := fmt.Errorf("no backing file")
	r.Register("editor", func(string) (Panel, error) { return Panel{}, boom })

	if _, err := r.Create("editor", "editor:1"); !errors.Is(err, boom) {
		t.Errorf("factory error should be wrapped, got %v", err)
	}
}

func TestKeysAndUnregister(t *testing.T) {
	r := New(nil)
	r.Register("b", func(string) (Panel, error) { return Panel{}, nil })
	r.Register("a", func(string) (Panel, error) { return Panel{}, nil })

	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected sorted keys [a b], got %v", keys)
	}

	if !r.Unregister("a") {
		t.Error("expected Unregister to report removal")
	}
	if r.Has("a") {
		t.Error("key should be gone")
	}
	if r.Unregister("a") {
		t.Error("second Unregister should report false")
	}
}

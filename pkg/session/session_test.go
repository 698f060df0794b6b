package session

import (
	"sync"
	"testing"

	"hugbridge/pkg/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg, err := registry.New([]registry.Descriptor{
		{Key: "alpha", Endpoint: "https://example.test/alpha", Output: registry.OutputText},
		{Key: "beta", Endpoint: "https://example.test/beta", Output: registry.OutputImage},
	})
	if err != nil {
		t.Fatalf("registry.New error: %v", err)
	}

	return reg
}

func TestNewDefaultsToFirstKey(t *testing.T) {
	state, err := New(testRegistry(t), "")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if got := state.Active(); got != "alpha" {
		t.Fatalf("Active() = %q, want %q", got, "alpha")
	}
}

func TestNewRejectsUnknownDefault(t *testing.T) {
	if _, err := New(testRegistry(t), "gamma"); err == nil {
		t.Fatal("expected unknown default model error")
	}
}

func TestSetActiveSwitchesModel(t *testing.T) {
	state, err := New(testRegistry(t), "alpha")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := state.SetActive("beta"); err != nil {
		t.Fatalf("SetActive error: %v", err)
	}
	if got := state.Active(); got != "beta" {
		t.Fatalf("Active() = %q, want %q", got, "beta")
	}
}

func TestSetActiveUnknownKeyLeavesSelectionUnchanged(t *testing.T) {
	state, err := New(testRegistry(t), "alpha")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := state.SetActive("gamma"); err == nil {
		t.Fatal("expected invalid key error")
	}
	if got := state.Active(); got != "alpha" {
		t.Fatalf("Active() = %q, want unchanged %q", got, "alpha")
	}
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	state, err := New(testRegistry(t), "alpha")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if key := state.Active(); key != "alpha" && key != "beta" {
					t.Errorf("Active() = %q, want a registered key", key)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			key := "alpha"
			if j%2 == 0 {
				key = "beta"
			}
			if err := state.SetActive(key); err != nil {
				t.Errorf("SetActive error: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}

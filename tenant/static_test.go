package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestStaticRegistryFind(t *testing.T) {
	reg := NewStaticRegistry()
	reg.Add(Config{
		ID:             "app1",
		Name:           "App One",
		RedirectURL:    "https://app1.example.com/cb",
		RefreshEnabled: true,
	})

	cfg, err := reg.Find(context.Background(), "app1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if cfg.Name != "App One" || !cfg.RefreshEnabled {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestStaticRegistryNotFound(t *testing.T) {
	reg := NewStaticRegistry()

	if _, err := reg.Find(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find = %v, want ErrNotFound", err)
	}
}

func TestStaticRegistryAddReplaces(t *testing.T) {
	reg := NewStaticRegistry()
	reg.Add(Config{ID: "app1", Name: "Old"})
	reg.Add(Config{ID: "app1", Name: "New"})

	cfg, err := reg.Find(context.Background(), "app1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if cfg.Name != "New" {
		t.Fatalf("Name = %q", cfg.Name)
	}
}

func TestStaticRegistryFindReturnsCopy(t *testing.T) {
	reg := NewStaticRegistry()
	reg.Add(Config{ID: "app1", Name: "App One"})

	cfg, err := reg.Find(context.Background(), "app1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	cfg.Name = "mutated"

	again, err := reg.Find(context.Background(), "app1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if again.Name != "App One" {
		t.Fatal("caller mutation leaked into the registry")
	}
}

func TestStaticRegistryConcurrentUse(t *testing.T) {
	reg := NewStaticRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Add(Config{ID: "app1", Name: "App One"})
			_, _ = reg.Find(ctx, "app1")
		}()
	}
	wg.Wait()
}

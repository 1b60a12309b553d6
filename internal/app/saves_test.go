package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSaveTarget struct {
	bound   string
	syncs   int
	bindErr error
	syncErr error
}

func (f *fakeSaveTarget) BindSaveFile(path string) error {
	if f.bindErr != nil {
		return f.bindErr
	}
	f.bound = path
	return nil
}

func (f *fakeSaveTarget) SyncSave() error {
	f.syncs++
	return f.syncErr
}

func TestSaveManagerPathFor(t *testing.T) {
	sm := NewSaveManager("saves", time.Second)
	tests := map[string]string{
		"roms/zelda.nes":   filepath.Join("saves", "zelda.sav"),
		"/abs/Metroid.NES": filepath.Join("saves", "Metroid.sav"),
		"noext":            filepath.Join("saves", "noext.sav"),
	}
	for rom, want := range tests {
		if got := sm.PathFor(rom); got != want {
			t.Errorf("PathFor(%q) = %q, want %q", rom, got, want)
		}
	}
}

func TestSaveManagerBind(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	sm := NewSaveManager(dir, time.Second)

	target := &fakeSaveTarget{}
	if err := sm.Bind(target, false, "game.nes"); err != nil {
		t.Fatal(err)
	}
	if target.bound != "" || sm.Path() != "" {
		t.Error("cart without battery was bound")
	}
	if err := sm.Sync(); err != nil || target.syncs != 0 {
		t.Error("sync with nothing bound touched the target")
	}

	if err := sm.Bind(target, true, "roms/game.nes"); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "game.sav")
	if target.bound != want || sm.Path() != want {
		t.Errorf("bound %q, want %q", target.bound, want)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Error("save directory not created")
	}
}

func TestSaveManagerBindFailure(t *testing.T) {
	sm := NewSaveManager(t.TempDir(), time.Second)
	target := &fakeSaveTarget{bindErr: errors.New("locked")}
	err := sm.Bind(target, true, "game.nes")
	if err == nil || !errors.Is(err, target.bindErr) {
		t.Fatalf("got %v, want wrapped bind error", err)
	}
	if sm.Path() != "" {
		t.Error("failed bind recorded a path")
	}
}

func TestSaveManagerMaybeSync(t *testing.T) {
	sm := NewSaveManager(t.TempDir(), 10*time.Second)
	target := &fakeSaveTarget{}
	if err := sm.Bind(target, true, "game.nes"); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	if err := sm.MaybeSync(now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if target.syncs != 0 {
		t.Errorf("synced before the interval elapsed")
	}

	if err := sm.MaybeSync(now.Add(11 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if target.syncs != 1 {
		t.Errorf("syncs = %d, want 1", target.syncs)
	}

	// The interval restarts from the last sync
	if err := sm.MaybeSync(now.Add(12 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if target.syncs != 1 {
		t.Errorf("syncs = %d, want 1", target.syncs)
	}

	target.syncErr = errors.New("disk full")
	if err := sm.Sync(); !errors.Is(err, target.syncErr) {
		t.Errorf("got %v, want wrapped sync error", err)
	}
}

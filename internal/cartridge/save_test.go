package cartridge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")

	cart, err := NewROMBuilder().WithBattery().BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	if err := cart.BindSaveFile(path); err != nil {
		t.Fatalf("BindSaveFile failed: %v", err)
	}

	ram := cart.Segment(PRGRAM).Data
	ram[0] = 0x12
	ram[len(ram)-1] = 0x34
	if err := cart.SyncSave(); err != nil {
		t.Fatalf("SyncSave failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(ram) {
		t.Fatalf("save file size = %d, want %d", len(data), len(ram))
	}
	if !bytes.Equal(data, ram) {
		t.Error("save file is not a verbatim copy of PRG-RAM")
	}
	if err := cart.CloseSave(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewROMBuilder().WithBattery().BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	if err := reloaded.BindSaveFile(path); err != nil {
		t.Fatal(err)
	}
	defer reloaded.CloseSave()
	got := reloaded.Segment(PRGRAM).Data
	if got[0] != 0x12 || got[len(got)-1] != 0x34 {
		t.Error("PRG-RAM was not restored from the save file")
	}
}

func TestSaveFileWithoutBattery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nobattery.sav")
	cart, err := NewROMBuilder().BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	if err := cart.BindSaveFile(path); err != nil {
		t.Fatalf("BindSaveFile failed: %v", err)
	}
	if cart.SavePath() != "" {
		t.Error("cart without battery bound a save file")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("save file created for cart without battery")
	}
}

func TestSyncSaveUnbound(t *testing.T) {
	cart, err := NewROMBuilder().WithBattery().BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	if err := cart.SyncSave(); err != nil {
		t.Errorf("SyncSave on unbound cart returned %v", err)
	}
	if err := cart.CloseSave(); err != nil {
		t.Errorf("CloseSave on unbound cart returned %v", err)
	}
}

func TestBindSaveFileBadPath(t *testing.T) {
	cart, err := NewROMBuilder().WithBattery().BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := cart.BindSaveFile(filepath.Join(dir, "missing", "dir", "x.sav")); err == nil {
		t.Error("expected error for unopenable path")
	}
	if cart.SavePath() != "" {
		t.Error("failed bind left a path recorded")
	}
}

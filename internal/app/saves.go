package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SaveTarget is the part of the machine the save manager drives
type SaveTarget interface {
	BindSaveFile(path string) error
	SyncSave() error
}

// SaveManager keeps battery-backed PRG-RAM of the loaded ROM in
// <dir>/<rom>.sav, syncing it at a fixed interval
type SaveManager struct {
	dir      string
	interval time.Duration

	mu       sync.Mutex
	target   SaveTarget
	path     string
	lastSync time.Time
	debug    bool
}

// NewSaveManager creates a manager writing under dir
func NewSaveManager(dir string, interval time.Duration) *SaveManager {
	return &SaveManager{dir: dir, interval: interval}
}

// EnableDebug toggles sync logging
func (sm *SaveManager) EnableDebug(enable bool) {
	sm.debug = enable
}

// PathFor returns the save file path for a ROM file
func (sm *SaveManager) PathFor(romPath string) string {
	base := filepath.Base(romPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(sm.dir, base+".sav")
}

// Bind attaches the save file of romPath to target when the cartridge has
// a battery. A failed bind leaves the machine without persistence.
func (sm *SaveManager) Bind(target SaveTarget, hasBattery bool, romPath string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.target = nil
	sm.path = ""
	if !hasBattery {
		return nil
	}

	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	path := sm.PathFor(romPath)
	if err := target.BindSaveFile(path); err != nil {
		return fmt.Errorf("failed to bind save file %s: %w", path, err)
	}

	sm.target = target
	sm.path = path
	sm.lastSync = time.Now()
	log.Printf("[SAVE] battery RAM bound to %s", path)
	return nil
}

// Path returns the bound save file, or "" when nothing is persisted
func (sm *SaveManager) Path() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.path
}

// MaybeSync flushes the save file when the interval has passed since the
// last sync. It must be called from the goroutine that runs the machine.
func (sm *SaveManager) MaybeSync(now time.Time) error {
	sm.mu.Lock()
	due := sm.target != nil && now.Sub(sm.lastSync) >= sm.interval
	sm.mu.Unlock()
	if !due {
		return nil
	}
	return sm.sync(now)
}

// Sync flushes the save file immediately
func (sm *SaveManager) Sync() error {
	return sm.sync(time.Now())
}

func (sm *SaveManager) sync(now time.Time) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.target == nil {
		return nil
	}
	sm.lastSync = now
	if err := sm.target.SyncSave(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", sm.path, err)
	}
	if sm.debug {
		log.Printf("[SAVE] synced %s", sm.path)
	}
	return nil
}

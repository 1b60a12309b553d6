package cartridge

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// BindSaveFile attaches a battery save file to PRG-RAM. The file layout is
// the raw concatenation of the PRG-RAM banks with no header. Existing
// contents are loaded; a missing file is created. Carts without a battery
// are left unbound and nil is returned.
func (c *Cartridge) BindSaveFile(path string) error {
	if !c.HasBattery() {
		return nil
	}
	if c.save != nil {
		if err := c.CloseSave(); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open save file %s: %w", path, err)
	}

	ram := c.segments[PRGRAM].Data
	n, err := io.ReadFull(f, ram)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		f.Close()
		return fmt.Errorf("failed to read save file %s: %w", path, err)
	}

	c.save = f
	c.savePath = path
	c.logf("bound save file %s (%d of %d bytes loaded)", path, n, len(ram))
	return nil
}

// SyncSave writes PRG-RAM verbatim to the bound save file. It is a no-op
// when no file is bound.
func (c *Cartridge) SyncSave() error {
	if c.save == nil {
		return nil
	}
	if _, err := c.save.WriteAt(c.segments[PRGRAM].Data, 0); err != nil {
		return fmt.Errorf("failed to write save file %s: %w", c.savePath, err)
	}
	if err := c.save.Sync(); err != nil {
		return fmt.Errorf("failed to flush save file %s: %w", c.savePath, err)
	}
	return nil
}

// CloseSave syncs and releases the bound save file
func (c *Cartridge) CloseSave() error {
	if c.save == nil {
		return nil
	}
	syncErr := c.SyncSave()
	closeErr := c.save.Close()
	c.save = nil
	c.savePath = ""
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

// SavePath returns the bound save file path, or "" when unbound
func (c *Cartridge) SavePath() string {
	return c.savePath
}

package bus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/interrupt"
	"nescore/internal/ppu"
)

func newTestBus(t testing.TB, rom *cartridge.ROMBuilder) *Bus {
	t.Helper()
	b, err := New(rom.Build())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b
}

func TestStoreLoadCompare(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000,
		0xA9, 0x5A, // LDA #$5A
		0x85, 0x10, // STA $10
		0xA9, 0x77, // LDA #$77
		0xA5, 0x10, // LDA $10
		0xC9, 0x5A, // CMP #$5A
		0x4C, 0x0A, 0x80, // JMP $800A
	))
	defer b.Close()

	b.RunCycles(100)
	s := b.CPUState()
	if s.A != 0x5A {
		t.Errorf("A = $%02X, want $5A from zero page", s.A)
	}
	if s.P&cpu.FlagZ == 0 || s.P&cpu.FlagC == 0 {
		t.Errorf("flags %s, want Z and C set", s.FlagsString())
	}
	if b.Peek(0x0010) != 0x5A {
		t.Error("zero page store missing")
	}
}

func TestRunCyclesOvershoot(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000, 0x4C, 0x00, 0x80))
	defer b.Close()

	for _, n := range []int{1, 2, 3, 10, 1000} {
		got := b.RunCycles(n)
		if got < n || got > n+7 {
			t.Errorf("RunCycles(%d) = %d", n, got)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		rom  []byte
		want error
	}{
		{"bad header", []byte("not a rom"), cartridge.ErrBadHeader},
		{"unknown mapper", cartridge.NewROMBuilder().WithMapper(5).Build(), cartridge.ErrUnknownMapper},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.rom)
			if b != nil {
				t.Error("failed load produced a machine")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			var loadErr *cartridge.LoadError
			if !errors.As(err, &loadErr) {
				t.Errorf("error %T is not a *LoadError", err)
			}
		})
	}
}

func TestRAMMirroring(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	defer b.Close()

	b.Memory.Write(0x0123, 0x5A)
	for _, addr := range []uint16{0x0123, 0x0923, 0x1123, 0x1923} {
		if got := b.Memory.Read(addr); got != 0x5A {
			t.Errorf("$%04X = $%02X, want $5A", addr, got)
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	defer b.Close()

	// $3FFE and $2FFF are $2006 and $2007
	b.Memory.Write(0x3FFE, 0x3F)
	b.Memory.Write(0x3FFE, 0x01)
	b.Memory.Write(0x2FFF, 0x2A)
	if got := b.Video.Read(0x3F01); got != 0x2A {
		t.Errorf("palette $3F01 = $%02X, want $2A", got)
	}
}

func TestRegisterAccess(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	defer b.Close()

	// A stray first write is discarded by the status read
	b.RegWrite(0x2006, 0x21)
	b.RegRead(0x2002)
	b.RegWrite(0x2006, 0x3F)
	b.RegWrite(0x2006, 0x00)
	b.RegWrite(0x2007, 0x0F)
	if got := b.Video.Read(0x3F00); got != 0x0F {
		t.Errorf("backdrop = $%02X, want $0F", got)
	}
}

func TestControllerPort(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	defer b.Close()

	b.SetInput(0x09) // A + Start
	b.Memory.Write(0x4016, 1)
	b.Memory.Write(0x4016, 0)

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if got := b.Memory.Read(0x4016) & 0x01; got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestOAMDMA(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000, 0xEA, 0x4C, 0x00, 0x80))
	defer b.Close()

	for i := 0; i < 256; i++ {
		b.Memory.Write(0x0200+uint16(i), uint8(i))
	}
	odd := b.Cycles()&1 != 0
	b.Memory.Write(0x4014, 0x02)

	n := b.CPU.Step()
	want := oamDMACycles + 2
	if odd {
		want++
	}
	if n != want {
		t.Errorf("DMA step took %d cycles, want %d", n, want)
	}

	b.RegWrite(0x2003, 0x10)
	if got := b.RegRead(0x2004); got != 0x10 {
		t.Errorf("OAM[$10] = $%02X, want $10", got)
	}
}

func TestFrameCallback(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000, 0x4C, 0x00, 0x80))
	defer b.Close()

	frames := 0
	b.SetFrameCallback(func(frame *[ppu.FrameSize]uint8) {
		frames++
	})
	b.RunCycles(CyclesPerFrame * 3)
	if frames != 3 {
		t.Errorf("got %d frames, want 3", frames)
	}
	if b.FrameCount() != 3 {
		t.Errorf("FrameCount = %d", b.FrameCount())
	}

	before := b.FrameCount()
	b.RunFrame()
	if b.FrameCount() != before+1 {
		t.Error("RunFrame did not complete exactly one frame")
	}
}

func TestVBlankNMI(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().
		WithCode(0x8000,
			0xA9, 0x80, // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000
			0x4C, 0x05, 0x80, // JMP $8005
		).
		WithCode(0x9000,
			0xE6, 0x30, // INC $30
			0x40, // RTI
		).
		WithNMIVector(0x9000))
	defer b.Close()

	b.RunCycles(CyclesPerFrame * 2)
	if got := b.Peek(0x0030); got != 2 {
		t.Errorf("NMI handler ran %d times, want 2", got)
	}
}

func mmc3Program(enable bool) *cartridge.ROMBuilder {
	code := []uint8{
		0xA9, 0x05, // LDA #5
		0x8D, 0x00, 0xC0, // STA $C000 reload value
		0x8D, 0x01, 0xC0, // STA $C001 reload
	}
	if enable {
		code = append(code, 0x8D, 0x01, 0xE0) // STA $E001
	} else {
		code = append(code, 0x8D, 0x00, 0xE0) // STA $E000
	}
	code = append(code,
		0xA9, 0x08, // LDA #$08 sprites at $1000
		0x8D, 0x00, 0x20, // STA $2000
		0xA9, 0x18, // LDA #$18
		0x8D, 0x01, 0x20, // STA $2001
	)
	loop := 0x8000 + uint16(len(code))
	code = append(code, 0x4C, uint8(loop), uint8(loop>>8))

	return cartridge.NewROMBuilder().
		WithMapper(4).
		WithPRGBanks(2).
		WithCode(0x8000, code...)
}

func TestMMC3ScanlineIRQ(t *testing.T) {
	b := newTestBus(t, mmc3Program(true))
	defer b.Close()

	// I is set after reset, so the line stays up for inspection
	fired := -1
	for b.FrameCount() == 0 {
		b.RunCycles(1)
		if b.irq.Check(interrupt.IRQMapper) {
			fired = b.PPU.Scanline()
			break
		}
	}
	// Reload on the pre-render line, then one clock per visible line
	if fired != 4 {
		t.Fatalf("IRQ at scanline %d, want 4", fired)
	}

	b.Memory.Write(0xE000, 0)
	if b.irq.Asserted() {
		t.Fatal("$E000 did not acknowledge the IRQ")
	}
	for b.FrameCount() == 0 {
		b.RunCycles(100)
		if b.irq.Asserted() {
			t.Fatalf("IRQ reasserted at scanline %d while disabled", b.PPU.Scanline())
		}
	}
}

func TestMMC3IRQDisabled(t *testing.T) {
	b := newTestBus(t, mmc3Program(false))
	defer b.Close()

	for b.FrameCount() < 2 {
		b.RunCycles(100)
		if b.irq.Check(interrupt.IRQMapper) {
			t.Fatalf("IRQ asserted at scanline %d with IRQs disabled", b.PPU.Scanline())
		}
	}
}

func TestMMC3IRQFromPPUADDR(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithMapper(4).WithPRGBanks(2).WithCode(0x8000, 0x4C, 0x00, 0x80))
	defer b.Close()

	b.Memory.Write(0xC000, 0x00) // reload 0
	b.Memory.Write(0xC001, 0x00)
	b.Memory.Write(0xE001, 0x00)

	for i := 0; i < 20; i++ {
		b.Memory.Write(0x2006, 0x00)
		b.Memory.Write(0x2006, 0x00)
	}
	if b.irq.Check(interrupt.IRQMapper) {
		t.Fatal("IRQ raised while A12 stayed low")
	}

	b.Memory.Write(0x2006, 0x10)
	b.Memory.Write(0x2006, 0x00)
	if !b.irq.Check(interrupt.IRQMapper) {
		t.Error("A12 rise through $2006 did not clock the counter")
	}
}

func TestPRGRemapInvalidatesTraces(t *testing.T) {
	// UxROM: bank 0 at $8000 runs code that switches $8000 to bank 1,
	// whose copy of the loop stores a different marker
	rom := cartridge.NewROMBuilder().
		WithMapper(2).
		WithPRGBanks(4).
		WithPRGData(0x0000,
			0xA9, 0x01, // LDA #1
			0x8D, 0x00, 0xC0, // STA $C000 selects bank 1
			0x85, 0x40, // STA $40
			0x4C, 0x05, 0x80, // JMP $8005
		).
		WithPRGData(0x4000,
			0xA9, 0x01,
			0x8D, 0x00, 0xC0,
			0xE6, 0x41, // INC $41
			0x4C, 0x05, 0x80,
		)
	b := newTestBus(t, rom)
	defer b.Close()

	b.RunCycles(200)
	if b.Peek(0x0041) == 0 {
		t.Error("stale trace kept running the old bank")
	}
}

func TestSaveBinding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	b := newTestBus(t, cartridge.NewROMBuilder().WithBattery())

	if err := b.BindSaveFile(path); err != nil {
		t.Fatalf("BindSaveFile failed: %v", err)
	}
	b.Memory.Write(0x6000, 0xAB)
	b.Memory.Write(0x7FFF, 0xCD)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0x2000 || data[0] != 0xAB || data[0x1FFF] != 0xCD {
		t.Errorf("save file is not the PRG-RAM image (len %d)", len(data))
	}

	again := newTestBus(t, cartridge.NewROMBuilder().WithBattery())
	defer again.Close()
	if err := again.BindSaveFile(path); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again.Cart.Segment(cartridge.PRGRAM).Data, data) {
		t.Error("PRG-RAM not restored from save file")
	}
}

func TestSyncSaveUnbound(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	defer b.Close()
	if err := b.SyncSave(); err != nil {
		t.Errorf("SyncSave without a save file returned %v", err)
	}
}

func TestReset(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000, 0x4C, 0x00, 0x80))
	defer b.Close()

	b.Memory.Write(0x0300, 0x77)
	b.Video.Write(0x2000, 0x42)
	b.Video.Write(0x3F01, 0x21)
	b.RunCycles(5000)
	b.Reset()

	s := b.CPUState()
	if s.PC != 0x8000 {
		t.Errorf("PC after reset = $%04X", s.PC)
	}
	if s.P&cpu.FlagI == 0 {
		t.Error("I flag clear after reset")
	}
	if b.Peek(0x0300) != 0x77 {
		t.Error("reset cleared work RAM")
	}
	if b.Video.Read(0x2000) != 0x42 || b.Video.Palette(0x01) != 0x21 {
		t.Error("reset cleared VRAM or palette RAM")
	}
	if b.nmi.Flags() != 0 || b.irq.Flags() != 0 {
		t.Error("interrupt lines survived reset")
	}
}

func TestPowerCycle(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000, 0x4C, 0x00, 0x80))
	defer b.Close()

	b.Memory.Write(0x0300, 0x77)
	b.Video.Write(0x2000, 0x42)
	b.Video.Write(0x3F01, 0x21)
	b.PowerCycle()

	if b.Peek(0x0300) != 0x00 {
		t.Error("power cycle kept work RAM")
	}
	if b.Video.Read(0x2000) != 0x00 || b.Video.Palette(0x01) != 0x0F {
		t.Error("power cycle kept VRAM or palette RAM")
	}
	if b.CPUState().PC != 0x8000 {
		t.Errorf("PC after power cycle = $%04X", b.CPUState().PC)
	}
}

func BenchmarkRunFrame(b *testing.B) {
	rom := cartridge.NewROMBuilder().WithCode(0x8000,
		0xA9, 0x1E, 0x8D, 0x01, 0x20, // enable rendering
		0xE8, 0xC8, 0x4C, 0x05, 0x80, // INX; INY; JMP $8005
	)
	m := newTestBus(b, rom)
	defer m.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RunFrame()
	}
}

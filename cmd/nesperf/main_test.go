package main

import (
	"math/rand"
	"testing"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
)

func TestRun(t *testing.T) {
	machine, err := bus.New(cartridge.NewROMBuilder().WithCode(0x8000, 0x4C, 0x00, 0x80).Build())
	if err != nil {
		t.Fatal(err)
	}
	defer machine.Close()

	cycles, elapsed := run(machine, 100000, 4096, rand.New(rand.NewSource(1)))
	if cycles < 100000 || cycles > 100000+4096+7 {
		t.Errorf("ran %d cycles for a 100000 budget", cycles)
	}
	if elapsed <= 0 {
		t.Error("no elapsed time measured")
	}
	if machine.Cycles() < uint64(cycles) {
		t.Errorf("machine cycles %d < reported %d", machine.Cycles(), cycles)
	}
}

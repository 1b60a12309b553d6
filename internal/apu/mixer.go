package apu

// Lookup tables for the non-linear DAC, normalised to 0..1
var (
	pulseTable [31]float64
	tndTable   [203]float64
)

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = 95.52 / (8128.0/float64(i) + 100.0)
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = 163.67 / (24329.0/float64(i) + 100.0)
	}
}

// mix combines the channel outputs through the DAC tables
func (a *APU) mix() float64 {
	p := a.pulse[0].output() + a.pulse[1].output()
	tnd := 3*int(a.triangle.output()) + 2*int(a.noise.output()) + int(a.dmc.level)
	return pulseTable[p] + tndTable[tnd]
}

// highPass removes the DC offset of the unsigned DAC output
type highPass struct {
	prevIn  float64
	prevOut float64
}

const highPassAlpha = 0.996

func (h *highPass) apply(x float64) float64 {
	y := highPassAlpha * (h.prevOut + x - h.prevIn)
	h.prevIn = x
	h.prevOut = y
	return y
}

// emit converts one sample to int16 and hands full batches to the callback
func (a *APU) emit(sample float64) {
	v := a.filter.apply(sample) * 32767
	switch {
	case v > 32767:
		v = 32767
	case v < -32768:
		v = -32768
	}
	a.batch = append(a.batch, int16(v))

	if len(a.batch) < a.batchSize {
		return
	}
	if a.callback != nil {
		a.callback(a.batch)
		a.batch = make([]int16, 0, a.batchSize)
		return
	}
	a.batch = a.batch[:0]
}

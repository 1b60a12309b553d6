package cartridge

// SegmentID names one of the cartridge byte buffers
type SegmentID uint8

const (
	PRGROM SegmentID = iota
	PRGRAM
	CHRROM
	CHRRAM
	segmentCount
)

// Bank sizes used by the mapper windows
const (
	PRGBankSize = 0x2000
	CHRBankSize = 0x0400
)

func (id SegmentID) String() string {
	switch id {
	case PRGROM:
		return "PRG-ROM"
	case PRGRAM:
		return "PRG-RAM"
	case CHRROM:
		return "CHR-ROM"
	case CHRRAM:
		return "CHR-RAM"
	}
	return "invalid"
}

// Segment is a fixed buffer addressed in banks of BankSize bytes.
// The buffer is allocated once at load and never moves.
type Segment struct {
	Data     []uint8
	BankSize int
}

// BankCount returns the number of whole banks in the segment
func (s *Segment) BankCount() int {
	if s.BankSize == 0 {
		return 0
	}
	return len(s.Data) / s.BankSize
}

// Offset resolves a bank index to a byte offset. The index is taken modulo
// the bank count; negative indices count from the end.
func (s *Segment) Offset(bank int) int {
	n := s.BankCount()
	if n == 0 {
		return 0
	}
	bank %= n
	if bank < 0 {
		bank += n
	}
	return bank * s.BankSize
}

// Read returns the byte at offset within bank
func (s *Segment) Read(bank int, offset uint16) uint8 {
	if len(s.Data) == 0 {
		return 0
	}
	return s.Data[s.Offset(bank)+int(offset)%s.BankSize]
}

// Write stores a byte at offset within bank
func (s *Segment) Write(bank int, offset uint16, value uint8) {
	if len(s.Data) == 0 {
		return
	}
	s.Data[s.Offset(bank)+int(offset)%s.BankSize] = value
}

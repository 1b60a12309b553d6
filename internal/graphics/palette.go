package graphics

import (
	"image"

	"nescore/internal/ppu"
)

// Palette is the 2C02 master palette as 0x00RRGGBB
var Palette = [64]uint32{
	0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
	0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
	0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
	0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
	0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
	0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
	0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
	0xE4E594, 0xCFF29B, 0xBEFBB3, 0xB8F8D8, 0xB8F8F8, 0x000000, 0x000000, 0x000000,
}

// Expand converts a frame of palette indices to RGB
func Expand(indices *[ppu.FrameSize]uint8, out *Frame) {
	for i, c := range indices {
		out[i] = Palette[c&0x3F]
	}
}

// ToImage copies an RGB frame into an opaque RGBA image
func ToImage(frame *Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	FillImage(img, frame)
	return img
}

// FillImage writes an RGB frame into a 256x240 RGBA image
func FillImage(img *image.RGBA, frame *Frame) {
	pix := img.Pix
	for i, p := range frame {
		o := i * 4
		pix[o] = uint8(p >> 16)
		pix[o+1] = uint8(p >> 8)
		pix[o+2] = uint8(p)
		pix[o+3] = 0xFF
	}
}

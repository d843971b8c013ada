package vm

const (
	ScreenWidth  = 64
	ScreenHeight = 32

	spriteWidth = 8
)

// display is the monochrome framebuffer, row-major, origin top-left, one
// byte per pixel holding 0 or 1.
type display struct {
	pixels [ScreenWidth * ScreenHeight]uint8
}

func (d *display) clear() {
	for i := range d.pixels {
		d.pixels[i] = 0
	}
}

func (d *display) pixel(x, y int) bool {
	return d.pixels[y*ScreenWidth+x] != 0
}

// drawSprite XORs an 8-pixel-wide sprite onto the framebuffer, one byte per
// row, most-significant bit leftmost. The origin always wraps at the screen
// edges; pixels past an edge wrap too unless clip is set, in which case they
// are dropped. Reports whether any set pixel was turned off.
func (d *display) drawSprite(x, y uint8, sprite []uint8, clip bool) bool {
	originX := int(x) % ScreenWidth
	originY := int(y) % ScreenHeight

	collision := false
	for row, b := range sprite {
		py := originY + row
		if py >= ScreenHeight {
			if clip {
				break
			}
			py %= ScreenHeight
		}

		for col := 0; col < spriteWidth; col++ {
			if b&(0x80>>col) == 0 {
				continue
			}

			px := originX + col
			if px >= ScreenWidth {
				if clip {
					break
				}
				px %= ScreenWidth
			}

			i := py*ScreenWidth + px
			if d.pixels[i] != 0 {
				collision = true
			}
			d.pixels[i] ^= 1
		}
	}

	return collision
}

// snapshot returns a copy of the framebuffer for the rendering collaborator.
func (d *display) snapshot() []uint8 {
	out := make([]uint8, len(d.pixels))
	copy(out, d.pixels[:])
	return out
}

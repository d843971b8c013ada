package vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDrawSpriteOnBlankScreen(t *testing.T) {
	var d display

	collision := d.drawSprite(0, 0, []uint8{0b10100000, 0b01010000}, false)
	assert.False(t, collision)

	assert.True(t, d.pixel(0, 0))
	assert.False(t, d.pixel(1, 0))
	assert.True(t, d.pixel(2, 0))
	assert.False(t, d.pixel(0, 1))
	assert.True(t, d.pixel(1, 1))
	assert.True(t, d.pixel(3, 1))

	// Nothing outside the sprite footprint is set.
	count := 0
	for _, p := range d.pixels {
		if p != 0 {
			count++
		}
	}
	assert.Equal(t, 4, count)
}

func TestDrawSpriteCollision(t *testing.T) {
	var d display

	// Identical overdraw erases everything and reports a collision.
	d.drawSprite(4, 4, []uint8{0xFF}, false)
	collision := d.drawSprite(4, 4, []uint8{0xFF}, false)
	assert.True(t, collision)
	for _, p := range d.pixels {
		assert.Equal(t, uint8(0), p)
	}

	// Disjoint bits XOR in without collision.
	d.clear()
	d.drawSprite(4, 4, []uint8{0xF0}, false)
	collision = d.drawSprite(4, 4, []uint8{0x0F}, false)
	assert.False(t, collision)

	// A single overlapping bit is enough.
	collision = d.drawSprite(4, 4, []uint8{0x01}, false)
	assert.True(t, collision)
}

func TestDrawSpriteWrapsAtEdges(t *testing.T) {
	var d display

	collision := d.drawSprite(60, 30, []uint8{0xFF, 0xFF, 0xFF}, false)
	assert.False(t, collision)

	// Columns 60..63 wrap to 0..3, rows 30,31 wrap to 0.
	for _, y := range []int{30, 31, 0} {
		for _, x := range []int{60, 61, 62, 63, 0, 1, 2, 3} {
			assert.True(t, d.pixel(x, y))
		}
	}
	assert.False(t, d.pixel(4, 30))
	assert.False(t, d.pixel(0, 1))
}

func TestDrawSpriteOriginWraps(t *testing.T) {
	var d display

	// Coordinates beyond the screen wrap before drawing starts.
	d.drawSprite(64+2, 32+3, []uint8{0x80}, false)
	assert.True(t, d.pixel(2, 3))
}

func TestDrawSpriteClips(t *testing.T) {
	var d display

	collision := d.drawSprite(60, 30, []uint8{0xFF, 0xFF, 0xFF}, true)
	assert.False(t, collision)

	for _, y := range []int{30, 31} {
		for _, x := range []int{60, 61, 62, 63} {
			assert.True(t, d.pixel(x, y))
		}
	}

	// Nothing wrapped around.
	for _, x := range []int{0, 1, 2, 3} {
		assert.False(t, d.pixel(x, 30))
		assert.False(t, d.pixel(x, 0))
	}
	count := 0
	for _, p := range d.pixels {
		if p != 0 {
			count++
		}
	}
	assert.Equal(t, 8, count)
}

func TestClear(t *testing.T) {
	var d display
	d.drawSprite(10, 10, []uint8{0xFF, 0xFF}, false)

	d.clear()

	for _, p := range d.pixels {
		assert.Equal(t, uint8(0), p)
	}
}

// The clear-screen opcode gets its own path through the decoder, not just
// the display primitive.
func TestClearScreenOpcode(t *testing.T) {
	m := New(DefaultConfig())
	m.display.pixels[17] = 1
	m.ResetDrawFlag()

	stepOne(t, m, 0x00E0)

	for _, p := range m.display.pixels {
		assert.Equal(t, uint8(0), p)
	}
	assert.True(t, m.DrawFlag())
}

func TestClearThenDrawLeavesExactlyTheSprite(t *testing.T) {
	m := New(DefaultConfig())
	m.display.pixels[100] = 1
	m.display.pixels[200] = 1

	m.index = 0x700
	m.mem[0x700] = 0xA5
	m.registers[0] = 8
	m.registers[1] = 4

	stepOne(t, m, 0x00E0) // cls
	stepOne(t, m, 0xD011) // sprite v0, v1, 1

	assert.Equal(t, uint8(0), m.registers[0xF])
	for i, p := range m.display.pixels {
		x, y := i%ScreenWidth, i/ScreenWidth
		want := uint8(0)
		if y == 4 && x >= 8 && x < 16 && (0xA5>>(15-x))&1 != 0 {
			want = 1
		}
		assert.Equal(t, want, p)
	}
}

func TestDrawOpcodeSetsCollisionFlag(t *testing.T) {
	m := New(DefaultConfig())
	m.index = 0x700
	m.mem[0x700] = 0xFF
	m.registers[0] = 0
	m.registers[1] = 0

	stepOne(t, m, 0xD011)
	assert.Equal(t, uint8(0), m.registers[0xF])

	stepOne(t, m, 0xD011)
	assert.Equal(t, uint8(1), m.registers[0xF])
}

func TestDrawZeroHeightSprite(t *testing.T) {
	m := New(DefaultConfig())
	m.index = 0x0FFF // would be out of range for any nonzero height
	m.registers[0xF] = 1

	stepOne(t, m, 0xD010)

	assert.Equal(t, uint8(0), m.registers[0xF])
	for _, p := range m.display.pixels {
		assert.Equal(t, uint8(0), p)
	}
}

func TestDrawSpriteReadOutOfBounds(t *testing.T) {
	m := New(DefaultConfig())
	m.index = 0x0FFE
	writeWord(m, 0xD014) // 4 rows from 0xFFE crosses the end of memory
	pc := m.pc

	err := m.Step()
	assert.Error(t, err)
	assert.Equal(t, pc, m.pc)
	for _, p := range m.display.pixels {
		assert.Equal(t, uint8(0), p)
	}
}

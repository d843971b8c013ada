package vm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	FontOffset = uint16(0x050)
	FontCount  = 16
	FontHeight = 5

	maxProgramSize = MemorySize - int(ProgramStart)
)

// Config selects between documented interpreter variants. Defaults follow
// the Cowgod reference; compatibility test suites exercise both values of
// each toggle.
type Config struct {
	// ShiftQuirk makes 8XY6/8XYE shift VX in place; when false they shift
	// VY into VX.
	ShiftQuirk bool

	// LoadStoreQuirk makes FX55/FX65 leave I unchanged; when false they set
	// I = I + X + 1 as the original interpreter did.
	LoadStoreQuirk bool

	// JumpQuirk makes BNNN jump to XNN + VX; when false it jumps to
	// NNN + V0.
	JumpQuirk bool

	// ClipSprites clips sprite rows and columns at the screen edges instead
	// of wrapping them.
	ClipSprites bool
}

func DefaultConfig() Config {
	return Config{
		ShiftQuirk:     true,
		LoadStoreQuirk: true,
	}
}

// VM is one complete machine: memory, register file, stack, timers,
// framebuffer and keypad. It is exclusively owned by a driver loop that
// calls Step at the instruction rate and Tick at 60Hz; nothing inside is
// safe for concurrent use.
type VM struct {
	mem       memory
	registers [RegisterCount]uint8

	stack stack

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8
	soundTimer uint8

	display  display
	keypad   [KeyCount]bool
	drawFlag bool

	// Set by FX0A; while set, Step polls the keypad instead of fetching.
	awaitingKey bool
	awaitingReg uint8

	cfg      Config
	randByte func() uint8
	program  []byte
}

func New(cfg Config) *VM {
	vm := &VM{
		cfg: cfg,
		randByte: func() uint8 {
			return uint8(rand.IntN(256))
		},
	}
	vm.Reset()
	return vm
}

// Load copies a program image into memory at ProgramStart and resets the
// machine. It is the sole write path into program space.
func (vm *VM) Load(program []byte) error {
	if len(program) > maxProgramSize {
		return fmt.Errorf("%w: %d bytes, %d available", ErrProgramTooLarge, len(program), maxProgramSize)
	}

	vm.program = append([]byte(nil), program...)
	vm.Reset()
	return nil
}

// Reset re-initializes the machine from scratch: memory zeroed, font and
// program image reloaded, pc at ProgramStart. There is no partial reset.
func (vm *VM) Reset() {
	vm.pc = ProgramStart
	vm.index = 0
	vm.stack.reset()

	vm.display.clear()
	vm.drawFlag = true

	vm.awaitingKey = false
	vm.awaitingReg = 0

	for i := range vm.keypad {
		vm.keypad[i] = false
	}

	for i := range vm.registers {
		vm.registers[i] = 0
	}

	vm.mem.clear()

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontOffset), "n", len(fontSet))
	copy(vm.mem[FontOffset:], fontSet[:])

	if len(vm.program) > 0 {
		slog.Debug("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
		copy(vm.mem[ProgramStart:], vm.program)
	}

	vm.delayTimer = 0
	vm.soundTimer = 0
}

// Step runs one fetch-decode-execute cycle. A failed step reports exactly
// one fault and leaves the machine state as it was before the call.
func (vm *VM) Step() error {
	if vm.awaitingKey {
		vm.pollAwaitedKey()
		return nil
	}

	word, err := vm.mem.readWord(vm.pc)
	if err != nil {
		return err
	}

	in, err := decode(word)
	if err != nil {
		return err
	}

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.pc),
			"opcode", fmt.Sprintf("0x%04x", word),
			"instr", in.String(),
		)
	}

	pc := vm.pc
	vm.pc += InstructionSize

	if err := handlers[in.op](vm, in); err != nil {
		vm.pc = pc
		return err
	}

	return nil
}

func (vm *VM) pollAwaitedKey() {
	for i, pressed := range vm.keypad {
		if pressed {
			vm.registers[vm.awaitingReg] = uint8(i)
			vm.awaitingKey = false
			return
		}
	}
}

// Tick decrements both timers toward zero. The driver calls it at a fixed
// 60Hz cadence, decoupled from the instruction rate.
func (vm *VM) Tick() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
}

// Key identifies one of the 16 hex keypad keys.
type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// SetKey is the input collaborator's write surface.
func (vm *VM) SetKey(key Key, pressed bool) {
	if int(key) >= KeyCount {
		return
	}
	vm.keypad[key] = pressed
}

// SoundActive reports whether a tone should be playing. The machine never
// produces audio itself.
func (vm *VM) SoundActive() bool {
	return vm.soundTimer > 0
}

// Pixels returns a copy of the framebuffer: row-major, origin top-left, one
// byte per pixel holding 0 or 1.
func (vm *VM) Pixels() []uint8 {
	return vm.display.snapshot()
}

// DrawFlag reports whether the framebuffer changed since the last
// ResetDrawFlag.
func (vm *VM) DrawFlag() bool {
	return vm.drawFlag
}

func (vm *VM) ResetDrawFlag() {
	vm.drawFlag = false
}

// Package emulator paces a machine: it runs interpreter steps at the
// configured instruction rate and ticks the timers at a fixed 60Hz, the two
// cadences deliberately independent of each other.
package emulator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/retro8/chip8vm/internal/vm"
)

var (
	// ErrQuit is returned by a HAL when the user closed the window.
	ErrQuit = errors.New("quit")

	// ErrReboot is returned by a HAL when the user asked for a fresh start.
	ErrReboot = errors.New("reboot")
)

// TimerRate is the fixed timer and frame cadence in Hz.
const TimerRate = 60

// HAL is the host platform surface the driver loop needs: input polling,
// frame presentation and the tone gate.
type HAL interface {
	ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error
	Draw(pixels []uint8) error
	Tone(active bool)
}

type Emulator struct {
	machine *vm.VM
	hal     HAL
	clockHz int
}

func New(machine *vm.VM, hal HAL, clockHz int) *Emulator {
	if clockHz < TimerRate {
		clockHz = TimerRate
	}

	return &Emulator{
		machine: machine,
		hal:     hal,
		clockHz: clockHz,
	}
}

// Run drives the machine until the HAL reports a quit or the core faults.
// Each 60Hz frame polls input, executes clockHz/60 steps, ticks the timers
// once, redraws when the framebuffer changed and publishes the tone state.
func (e *Emulator) Run() error {
	ticker := time.NewTicker(time.Second / TimerRate)
	defer ticker.Stop()

	cyclesPerFrame := e.clockHz / TimerRate
	slog.Debug("run", "clock", e.clockHz, "cycles_per_frame", cyclesPerFrame)

	for range ticker.C {
		if err := e.hal.ReadInput(e.keyDown, e.keyUp); err != nil {
			switch {
			case errors.Is(err, ErrQuit):
				slog.Info("quit requested")
				return nil

			case errors.Is(err, ErrReboot):
				slog.Info("reboot requested")
				e.machine.Reset()
				continue

			default:
				return err
			}
		}

		for i := 0; i < cyclesPerFrame; i++ {
			if err := e.machine.Step(); err != nil {
				return fmt.Errorf("emulation halted: %w", err)
			}
		}

		e.machine.Tick()

		if e.machine.DrawFlag() {
			if err := e.hal.Draw(e.machine.Pixels()); err != nil {
				return err
			}
			e.machine.ResetDrawFlag()
		}

		e.hal.Tone(e.machine.SoundActive())
	}

	return nil
}

func (e *Emulator) keyDown(key vm.Key) {
	e.machine.SetKey(key, true)
}

func (e *Emulator) keyUp(key vm.Key) {
	e.machine.SetKey(key, false)
}

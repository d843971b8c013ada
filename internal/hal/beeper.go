package hal

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneHz     = 440
	toneVolume = 0.25
)

// squareWave is a beep.Streamer producing an endless square tone.
type squareWave struct {
	period int
	pos    int
}

func (s *squareWave) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := toneVolume
		if s.pos >= s.period/2 {
			v = -toneVolume
		}

		samples[i][0] = v
		samples[i][1] = v
		s.pos = (s.pos + 1) % s.period
	}

	return len(samples), true
}

func (s *squareWave) Err() error {
	return nil
}

// beeper plays the tone while the machine's sound timer is running. The
// stream stays attached to the speaker; only the pause state is toggled.
type beeper struct {
	ctrl   *beep.Ctrl
	active bool
}

func newBeeper() (*beeper, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to init speaker: %w", err)
	}

	ctrl := &beep.Ctrl{
		Streamer: &squareWave{period: int(sampleRate) / toneHz},
		Paused:   true,
	}
	speaker.Play(ctrl)

	return &beeper{ctrl: ctrl}, nil
}

func (b *beeper) setTone(active bool) {
	if active == b.active {
		return
	}
	b.active = active

	speaker.Lock()
	b.ctrl.Paused = !active
	speaker.Unlock()
}

func (b *beeper) shutdown() {
	speaker.Clear()
}

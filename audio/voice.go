package audio

import (
	"math"
	"math/rand"
	"time"

	"geos4/sequencer"
	"github.com/faiface/beep"
)

const SampleRate = beep.SampleRate(44100)

func Format() beep.Format {
	return beep.Format{
		SampleRate:  SampleRate,
		NumChannels: 2,
		Precision:   2,
	}
}

// VoiceDuration is the length of the one-shot for the given sound.
func VoiceDuration(kind sequencer.SoundKind) time.Duration {
	switch kind {
	case sequencer.SoundKick:
		return 400 * time.Millisecond
	case sequencer.SoundSnare:
		return 200 * time.Millisecond
	case sequencer.SoundHatClosed:
		return 80 * time.Millisecond
	case sequencer.SoundHatOpen:
		return 450 * time.Millisecond
	case sequencer.SoundClap:
		return 260 * time.Millisecond
	case sequencer.SoundTom:
		return 300 * time.Millisecond
	case sequencer.SoundCowbell:
		return 220 * time.Millisecond
	case sequencer.SoundRim:
		return 70 * time.Millisecond
	}
	return 400 * time.Millisecond
}

// NewVoice builds a fresh single-shot streamer for the given sound. All
// voices are synthesized, there are no samples to ship. A streamer cannot be
// rewound, trigger a new one for every hit.
func NewVoice(kind sequencer.SoundKind) beep.Streamer {
	length := SampleRate.N(VoiceDuration(kind))

	switch kind {
	case sequencer.SoundKick:
		// Pitched-down sine sweep, the classic analog kick recipe
		return &sweepVoice{startHz: 160, endHz: 45, sweep: 0.08, decay: 9, amp: 0.9, wave: sineWave, length: length}
	case sequencer.SoundSnare:
		return beep.Mix(
			&sweepVoice{startHz: 220, endHz: 160, sweep: 0.03, decay: 14, amp: 0.55, wave: triangleWave, length: length},
			newNoiseVoice(0.5, 22, 0.35, length),
		)
	case sequencer.SoundHatClosed:
		return newNoiseVoice(0.05, 65, 0.3, length)
	case sequencer.SoundHatOpen:
		return newNoiseVoice(0.05, 8, 0.3, length)
	case sequencer.SoundClap:
		return newClapVoice(length)
	case sequencer.SoundTom:
		return &sweepVoice{startHz: 140, endHz: 80, sweep: 0.06, decay: 10, amp: 0.8, wave: sineWave, length: length}
	case sequencer.SoundCowbell:
		// Two detuned squares, roughly the 808 ratio
		return beep.Mix(
			&sweepVoice{startHz: 540, endHz: 540, decay: 18, amp: 0.35, wave: squareWave, length: length},
			&sweepVoice{startHz: 800, endHz: 800, decay: 22, amp: 0.3, wave: squareWave, length: length},
		)
	case sequencer.SoundRim:
		return &sweepVoice{startHz: 420, endHz: 420, decay: 55, amp: 0.85, wave: sineWave, length: length}
	}

	return &sweepVoice{startHz: 160, endHz: 45, sweep: 0.08, decay: 9, amp: 0.9, wave: sineWave, length: length}
}

// sweepVoice is a phase-accumulating oscillator whose frequency glides from
// startHz to endHz over the first sweep seconds while the amplitude decays
// exponentially.
type sweepVoice struct {
	startHz float64
	endHz   float64
	sweep   float64
	decay   float64
	amp     float64
	wave    func(phase float64) float64
	length  int
	pos     int
	phase   float64
}

func (v *sweepVoice) Stream(samples [][2]float64) (int, bool) {
	if v.pos >= v.length {
		return 0, false
	}

	n := 0
	for i := range samples {
		if v.pos >= v.length {
			break
		}

		t := float64(v.pos) / float64(SampleRate)
		progress := 1.0
		if v.sweep > 0 && t < v.sweep {
			progress = t / v.sweep
		}
		frequency := v.startHz + (v.endHz-v.startHz)*progress
		v.phase += frequency / float64(SampleRate)

		value := v.wave(v.phase) * v.amp * math.Exp(-v.decay*t)
		samples[i][0] = value
		samples[i][1] = value

		v.pos++
		n++
	}
	return n, true
}

func (v *sweepVoice) Err() error {
	return nil
}

// noiseVoice is white noise through a one-pole highpass. Small alpha values
// keep only the hissy top end (hats), larger ones let more body through
// (snare layer). The rng is freshly seeded per voice so every hit of one
// sound is identical, like a sample-based machine.
type noiseVoice struct {
	rng     *rand.Rand
	alpha   float64
	decay   float64
	amp     float64
	lowpass float64
	length  int
	pos     int
}

func newNoiseVoice(alpha float64, decay float64, amp float64, length int) *noiseVoice {
	return &noiseVoice{
		rng:    rand.New(rand.NewSource(1982)),
		alpha:  alpha,
		decay:  decay,
		amp:    amp,
		length: length,
	}
}

func (v *noiseVoice) Stream(samples [][2]float64) (int, bool) {
	if v.pos >= v.length {
		return 0, false
	}

	n := 0
	for i := range samples {
		if v.pos >= v.length {
			break
		}

		t := float64(v.pos) / float64(SampleRate)
		white := v.rng.Float64()*2 - 1
		v.lowpass += v.alpha * (white - v.lowpass)

		value := (white - v.lowpass) * v.amp * math.Exp(-v.decay*t)
		samples[i][0] = value
		samples[i][1] = value

		v.pos++
		n++
	}
	return n, true
}

func (v *noiseVoice) Err() error {
	return nil
}

// clapVoice layers three short noise bursts 11ms apart followed by a longer
// tail, which is how classic drum machines fake the smear of many hands.
type clapVoice struct {
	rng     *rand.Rand
	lowpass float64
	length  int
	pos     int
}

func newClapVoice(length int) *clapVoice {
	return &clapVoice{
		rng:    rand.New(rand.NewSource(1987)),
		length: length,
	}
}

func (v *clapVoice) Stream(samples [][2]float64) (int, bool) {
	if v.pos >= v.length {
		return 0, false
	}

	n := 0
	for i := range samples {
		if v.pos >= v.length {
			break
		}

		t := float64(v.pos) / float64(SampleRate)
		var envelope float64
		if t < 0.033 {
			envelope = math.Exp(-math.Mod(t, 0.011) / 0.004)
		} else {
			envelope = math.Exp(-(t - 0.033) / 0.08)
		}

		white := v.rng.Float64()*2 - 1
		v.lowpass += 0.3 * (white - v.lowpass)

		value := (white - v.lowpass) * 0.6 * envelope
		samples[i][0] = value
		samples[i][1] = value

		v.pos++
		n++
	}
	return n, true
}

func (v *clapVoice) Err() error {
	return nil
}

func sineWave(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

func triangleWave(phase float64) float64 {
	p := phase - math.Floor(phase)
	if p < 0.5 {
		return 4*p - 1
	}
	return 3 - 4*p
}

func squareWave(phase float64) float64 {
	if phase-math.Floor(phase) < 0.5 {
		return 1
	}
	return -1
}

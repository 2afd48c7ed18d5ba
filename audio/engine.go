package audio

import (
	"sync"
	"time"

	"geos4/sequencer"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

// Output is the sink triggered voices are played into. The engine itself
// never talks to a device, so tests and headless runs swap in a NullOutput.
type Output interface {
	Init(format beep.Format) error
	Play(streamer beep.Streamer)
	Close()
}

// SpeakerOutput plays through the default audio device.
type SpeakerOutput struct{}

func (o *SpeakerOutput) Init(format beep.Format) error {
	err := speaker.Init(format.SampleRate, format.SampleRate.N(50*time.Millisecond))
	return errors.Wrap(err, "Unable to initialize the speaker")
}

func (o *SpeakerOutput) Play(streamer beep.Streamer) {
	speaker.Play(streamer)
}

func (o *SpeakerOutput) Close() {
	speaker.Clear()
	speaker.Close()
}

// NullOutput drops all audio but drains every streamer it gets, so voices
// behave exactly as they would on a real device.
type NullOutput struct {
	mutex  sync.Mutex
	played int
}

func (o *NullOutput) Init(format beep.Format) error {
	return nil
}

func (o *NullOutput) Play(streamer beep.Streamer) {
	o.mutex.Lock()
	o.played++
	o.mutex.Unlock()

	buffer := make([][2]float64, 512)
	for {
		if _, ok := streamer.Stream(buffer); !ok {
			return
		}
	}
}

// Played returns how many streamers were handed to this output.
func (o *NullOutput) Played() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.played
}

func (o *NullOutput) Close() {
}

// Engine synthesizes and plays drum voices. It also owns the optional
// recorder, triggers that happen while a recording runs are captured with
// their wall-clock offsets and can be bounced to a WAV file afterwards.
type Engine struct {
	mutex    sync.Mutex
	output   Output
	gain     float64
	recorder *Recorder
}

func NewEngine(output Output) (*Engine, error) {
	err := output.Init(Format())
	if err != nil {
		return nil, err
	}

	return &Engine{
		output: output,
		gain:   1,
	}, nil
}

// Trigger plays the one-shot voice for the given sound.
func (e *Engine) Trigger(kind sequencer.SoundKind) {
	e.mutex.Lock()
	gain := e.gain
	recorder := e.recorder
	e.mutex.Unlock()

	if recorder != nil {
		recorder.add(kind)
	}

	sigolo.Tracef("Triggering %s", kind)

	streamer := NewVoice(kind)
	if gain != 1 {
		streamer = &effects.Gain{Streamer: streamer, Gain: gain - 1}
	}
	e.output.Play(streamer)
}

// SetGain sets the linear output gain, clamped to [0, 2].
func (e *Engine) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	if gain > 2 {
		gain = 2
	}

	e.mutex.Lock()
	e.gain = gain
	e.mutex.Unlock()
	sigolo.Debugf("Set gain to %.2f", gain)
}

func (e *Engine) Gain() float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.gain
}

// StartRecording begins capturing triggers for a later bounce.
func (e *Engine) StartRecording() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.recorder != nil {
		return errors.New("Recording already in progress")
	}

	e.recorder = NewRecorder()
	sigolo.Info("Recording started")
	return nil
}

// StopRecording ends the capture and renders it to the given WAV file.
func (e *Engine) StopRecording(path string) error {
	e.mutex.Lock()
	recorder := e.recorder
	gain := e.gain
	e.recorder = nil
	e.mutex.Unlock()

	if recorder == nil {
		return errors.New("No recording in progress")
	}

	return recorder.Save(path, gain)
}

func (e *Engine) Recording() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.recorder != nil
}

func (e *Engine) Close() {
	e.output.Close()
}

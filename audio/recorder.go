package audio

import (
	"os"
	"sync"
	"time"

	"geos4/sequencer"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/wav"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

type voiceEvent struct {
	offset time.Duration
	kind   sequencer.SoundKind
}

// Recorder captures trigger events with their offsets from the recording
// start. Nothing is rendered while recording, Save re-synthesizes every
// voice at its offset and mixes them offline, so the bounce is sample exact
// no matter how the live playback performed.
type Recorder struct {
	mutex   sync.Mutex
	started time.Time
	events  []voiceEvent
}

func NewRecorder() *Recorder {
	return &Recorder{started: time.Now()}
}

func (r *Recorder) add(kind sequencer.SoundKind) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, voiceEvent{offset: time.Since(r.started), kind: kind})
}

// Len returns the number of captured triggers.
func (r *Recorder) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.events)
}

// Save renders the captured triggers into a WAV file.
func (r *Recorder) Save(path string, gain float64) error {
	r.mutex.Lock()
	events := make([]voiceEvent, len(r.events))
	copy(events, r.events)
	r.mutex.Unlock()

	if len(events) == 0 {
		return errors.New("Recording contains no triggers")
	}

	var total time.Duration
	streamers := make([]beep.Streamer, 0, len(events)+1)
	for _, event := range events {
		if end := event.offset + VoiceDuration(event.kind); end > total {
			total = end
		}
		streamers = append(streamers, beep.Seq(beep.Silence(SampleRate.N(event.offset)), NewVoice(event.kind)))
	}

	// The full-length silence keeps the mix alive until the last voice has
	// rung out, Take then cuts the exact bounce length.
	totalSamples := SampleRate.N(total)
	streamers = append(streamers, beep.Silence(totalSamples))
	var mixed beep.Streamer = beep.Take(totalSamples, beep.Mix(streamers...))
	if gain != 1 {
		mixed = &effects.Gain{Streamer: mixed, Gain: gain - 1}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to create WAV file %s", path)
	}

	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for WAV file %s", file.Name()))
	}()

	err = wav.Encode(file, mixed, Format())
	if err != nil {
		return errors.Wrapf(err, "Unable to encode WAV file %s", path)
	}

	sigolo.Infof("Saved recording with %d triggers (%s) to %s", len(events), total.Round(time.Millisecond), path)
	return nil
}

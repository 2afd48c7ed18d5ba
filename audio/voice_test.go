package audio

import (
	"math"
	"testing"

	"geos4/sequencer"
	"geos4/util"
	"github.com/faiface/beep"
)

func drainStreamer(streamer beep.Streamer) (int, float64) {
	buffer := make([][2]float64, 512)
	count := 0
	peak := 0.0
	for {
		n, ok := streamer.Stream(buffer)
		for i := 0; i < n; i++ {
			if v := math.Abs(buffer[i][0]); v > peak {
				peak = v
			}
			if v := math.Abs(buffer[i][1]); v > peak {
				peak = v
			}
		}
		count += n
		if !ok {
			return count, peak
		}
	}
}

func TestNewVoice_streamsExactVoiceDuration(t *testing.T) {
	for _, kind := range sequencer.AllSoundKinds() {
		// Act
		count, _ := drainStreamer(NewVoice(kind))

		// Assert
		util.AssertEqual(t, SampleRate.N(VoiceDuration(kind)), count)
	}
}

func TestNewVoice_staysWithinHeadroom(t *testing.T) {
	for _, kind := range sequencer.AllSoundKinds() {
		// Act
		_, peak := drainStreamer(NewVoice(kind))

		// Assert: audible but not blowing past the mix headroom
		util.AssertTrue(t, peak > 0.01)
		util.AssertTrue(t, peak < 1.5)
	}
}

func TestNewVoice_returnsFreshStreamers(t *testing.T) {
	// Arrange
	first := NewVoice(sequencer.SoundKick)
	firstCount, _ := drainStreamer(first)

	// Act: a drained voice stays drained, a new one streams from the start
	buffer := make([][2]float64, 16)
	n, ok := first.Stream(buffer)
	secondCount, _ := drainStreamer(NewVoice(sequencer.SoundKick))

	// Assert
	util.AssertEqual(t, 0, n)
	util.AssertFalse(t, ok)
	util.AssertEqual(t, firstCount, secondCount)
}

func TestNewVoice_hatLengthsDiffer(t *testing.T) {
	closedCount, _ := drainStreamer(NewVoice(sequencer.SoundHatClosed))
	openCount, _ := drainStreamer(NewVoice(sequencer.SoundHatOpen))
	util.AssertTrue(t, openCount > closedCount)
}

func TestVoiceDuration_positiveForAllKinds(t *testing.T) {
	for _, kind := range sequencer.AllSoundKinds() {
		util.AssertTrue(t, VoiceDuration(kind) > 0)
	}
}

func TestFormat(t *testing.T) {
	format := Format()
	util.AssertEqual(t, SampleRate, format.SampleRate)
	util.AssertEqual(t, 2, format.NumChannels)
	util.AssertEqual(t, 2, format.Precision)
}

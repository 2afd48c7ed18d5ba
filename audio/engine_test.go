package audio

import (
	"os"
	"path/filepath"
	"testing"

	"geos4/sequencer"
	"geos4/util"
	"github.com/faiface/beep/wav"
)

func TestEngine_triggerPlaysThroughOutput(t *testing.T) {
	// Arrange
	output := &NullOutput{}
	engine, err := NewEngine(output)
	util.AssertNil(t, err)
	defer engine.Close()

	// Act
	engine.Trigger(sequencer.SoundKick)
	engine.Trigger(sequencer.SoundSnare)
	engine.Trigger(sequencer.SoundHatClosed)

	// Assert
	util.AssertEqual(t, 3, output.Played())
}

func TestEngine_gainIsClamped(t *testing.T) {
	// Arrange
	engine, err := NewEngine(&NullOutput{})
	util.AssertNil(t, err)
	defer engine.Close()

	// Act & Assert
	util.AssertEqual(t, 1.0, engine.Gain())

	engine.SetGain(5)
	util.AssertEqual(t, 2.0, engine.Gain())

	engine.SetGain(-1)
	util.AssertEqual(t, 0.0, engine.Gain())

	engine.SetGain(0.5)
	util.AssertEqual(t, 0.5, engine.Gain())

	// A non-unit gain still plays fine
	engine.Trigger(sequencer.SoundKick)
}

func TestEngine_recordingLifecycle(t *testing.T) {
	// Arrange
	engine, err := NewEngine(&NullOutput{})
	util.AssertNil(t, err)
	defer engine.Close()

	path := filepath.Join(t.TempDir(), "bounce.wav")

	// Act & Assert
	util.AssertFalse(t, engine.Recording())
	util.AssertNil(t, engine.StartRecording())
	util.AssertTrue(t, engine.Recording())
	util.AssertNotNil(t, engine.StartRecording())

	engine.Trigger(sequencer.SoundKick)
	engine.Trigger(sequencer.SoundClap)

	util.AssertNil(t, engine.StopRecording(path))
	util.AssertFalse(t, engine.Recording())

	info, err := os.Stat(path)
	util.AssertNil(t, err)
	util.AssertTrue(t, info.Size() > 44)

	// A second stop has nothing to finish
	util.AssertNotNil(t, engine.StopRecording(path))
}

func TestEngine_stopRecordingWithoutTriggers(t *testing.T) {
	// Arrange
	engine, err := NewEngine(&NullOutput{})
	util.AssertNil(t, err)
	defer engine.Close()

	util.AssertNil(t, engine.StartRecording())

	// Act
	err = engine.StopRecording(filepath.Join(t.TempDir(), "empty.wav"))

	// Assert
	util.AssertNotNil(t, err)
}

func TestRecorder_save(t *testing.T) {
	// Arrange
	recorder := NewRecorder()
	recorder.add(sequencer.SoundKick)
	recorder.add(sequencer.SoundSnare)
	util.AssertEqual(t, 2, recorder.Len())

	path := filepath.Join(t.TempDir(), "recording.wav")

	// Act
	err := recorder.Save(path, 1)

	// Assert: the bounce decodes with the engine format and is at least as
	// long as the longest voice in it
	util.AssertNil(t, err)

	file, err := os.Open(path)
	util.AssertNil(t, err)
	streamer, format, err := wav.Decode(file)
	util.AssertNil(t, err)
	defer streamer.Close()

	util.AssertEqual(t, SampleRate, format.SampleRate)
	util.AssertEqual(t, 2, format.NumChannels)
	util.AssertTrue(t, streamer.Len() >= SampleRate.N(VoiceDuration(sequencer.SoundKick)))
}

func TestRecorder_saveWithoutEvents(t *testing.T) {
	recorder := NewRecorder()
	err := recorder.Save(filepath.Join(t.TempDir(), "empty.wav"), 1)
	util.AssertNotNil(t, err)
}

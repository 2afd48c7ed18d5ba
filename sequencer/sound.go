package sequencer

import (
	"strings"

	"github.com/pkg/errors"
)

// SoundKind identifies the drum voice a track triggers. The audio engine
// holds one synthesis patch per kind, so an unknown kind cannot slip through
// to playback the way an arbitrary sound name could.
type SoundKind int

const (
	SoundKick SoundKind = iota
	SoundSnare
	SoundHatClosed
	SoundHatOpen
	SoundClap
	SoundTom
	SoundCowbell
	SoundRim
)

var soundKindNames = []string{
	SoundKick:      "kick",
	SoundSnare:     "snare",
	SoundHatClosed: "hat-closed",
	SoundHatOpen:   "hat-open",
	SoundClap:      "clap",
	SoundTom:       "tom",
	SoundCowbell:   "cowbell",
	SoundRim:       "rim",
}

func (k SoundKind) String() string {
	if k < 0 || int(k) >= len(soundKindNames) {
		return "unknown"
	}
	return soundKindNames[k]
}

func ParseSoundKind(name string) (SoundKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range soundKindNames {
		if kindName == normalized {
			return SoundKind(kind), nil
		}
	}
	return SoundKick, errors.Errorf("Unknown sound kind '%s'", name)
}

// AllSoundKinds returns every kind in a fixed order, e.g. for cycling through
// the voices in a UI.
func AllSoundKinds() []SoundKind {
	kinds := make([]SoundKind, len(soundKindNames))
	for i := range kinds {
		kinds[i] = SoundKind(i)
	}
	return kinds
}

// defaultSounds is the positional assignment for new tracks, track 0 gets
// the kick like on every drum machine.
var defaultSounds = []SoundKind{
	SoundKick,
	SoundSnare,
	SoundHatClosed,
	SoundClap,
	SoundTom,
	SoundCowbell,
	SoundRim,
	SoundHatOpen,
}

// DefaultSoundForTrack returns the sound a freshly created track starts with.
func DefaultSoundForTrack(track int) SoundKind {
	return defaultSounds[track%len(defaultSounds)]
}

package playback

import (
	"sync"
	"time"

	"geos4/audio"
	"geos4/sequencer"
	"github.com/hauke96/sigolo/v2"
)

const (
	DefaultBPM = 90
	MinBPM     = 40
	MaxBPM     = 240
)

// StepEvent is handed to the step callback after every tick.
type StepEvent struct {
	Step     int
	Triggers []sequencer.Trigger
}

// Player advances the grid column by column on a sixteenth-note timer and
// triggers the sounds of every active cell it passes. One tick per column,
// a cell fires once no matter how many points it holds.
type Player struct {
	mutex       sync.Mutex
	grid        *sequencer.Grid
	engine      *audio.Engine
	bpm         int
	playing     bool
	currentStep int
	onStep      func(StepEvent)
	ticker      *time.Ticker
	stopChan    chan struct{}
	done        chan struct{}
}

func NewPlayer(grid *sequencer.Grid, engine *audio.Engine) *Player {
	return &Player{
		grid:        grid,
		engine:      engine,
		bpm:         DefaultBPM,
		currentStep: -1,
	}
}

// OnStep registers the callback invoked after every tick. The callback runs
// on the playback goroutine, heavy work should be handed off.
func (p *Player) OnStep(callback func(StepEvent)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onStep = callback
}

// Play starts the timer at the current BPM. Playback always begins in front
// of the first step, so the first tick plays column 0.
func (p *Player) Play() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.playing {
		sigolo.Debug("Playback already running")
		return
	}

	p.playing = true
	p.currentStep = -1
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})
	p.ticker = time.NewTicker(p.interval())

	sigolo.Infof("Starting playback at %d BPM", p.bpm)
	go p.loop(p.ticker, p.stopChan, p.done)
}

// Stop halts playback. When it returns the playback goroutine has exited
// and no further tick will fire.
func (p *Player) Stop() {
	p.mutex.Lock()
	if !p.playing {
		p.mutex.Unlock()
		sigolo.Debug("Playback already stopped")
		return
	}

	p.playing = false
	stop := p.stopChan
	done := p.done
	p.ticker = nil
	p.mutex.Unlock()

	close(stop)
	<-done
	sigolo.Info("Stopped playback")
}

// SetBPM changes the tempo, clamped to [MinBPM, MaxBPM]. A running timer is
// rescheduled from the new period, the next tick happens one new period from
// now regardless of the old phase.
func (p *Player) SetBPM(bpm int) {
	clamped := bpm
	if clamped < MinBPM {
		clamped = MinBPM
	}
	if clamped > MaxBPM {
		clamped = MaxBPM
	}
	if clamped != bpm {
		sigolo.Debugf("Clamped BPM %d to %d", bpm, clamped)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bpm == clamped {
		return
	}

	p.bpm = clamped
	if p.ticker != nil {
		p.ticker.Reset(p.interval())
	}
	sigolo.Debugf("Set BPM to %d", clamped)
}

func (p *Player) BPM() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.bpm
}

func (p *Player) Playing() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.playing
}

// CurrentStep returns the column of the last tick, -1 before the first one.
func (p *Player) CurrentStep() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.currentStep
}

// interval is the sixteenth-note period for the current BPM. Callers must
// hold the mutex.
func (p *Player) interval() time.Duration {
	return time.Minute / time.Duration(p.bpm) / 4
}

func (p *Player) loop(ticker *time.Ticker, stop chan struct{}, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A tick may already be queued when the stop arrives, check
			// again so it does not fire after Stop.
			select {
			case <-stop:
				return
			default:
			}
			p.tick()
		}
	}
}

func (p *Player) tick() {
	p.mutex.Lock()
	if !p.playing {
		p.mutex.Unlock()
		return
	}
	p.currentStep = (p.currentStep + 1) % p.grid.NumSteps()
	step := p.currentStep
	onStep := p.onStep
	p.mutex.Unlock()

	triggers := p.grid.TriggersForStep(step)
	for _, trigger := range triggers {
		p.engine.Trigger(trigger.Sound)
	}

	if onStep != nil {
		onStep(StepEvent{Step: step, Triggers: triggers})
	}
}

package scene

import "time"

// Animation is the playback state of an instance. States are sequence indexes
// of the instance model.
type Animation struct {
	State     int
	NextState int
	Frame     float64
	Playing   bool
}

// CurrentState returns the state of the instance, -1 when its model has no sequences.
func (i *Instance) CurrentState() int {
	if len(i.Model.Sequences) == 0 {
		return -1
	}
	return i.Animation.State
}

// SetState jumps to the first frame of the given state. Unknown states are ignored.
func (i *Instance) SetState(state int) bool {
	seq, ok := i.sequence(state)
	if !ok {
		return false
	}
	i.Animation.State = state
	i.Animation.NextState = state
	i.Animation.Frame = float64(seq.First)
	return true
}

// SetNextState sets the state entered once the current sequence ends.
func (i *Instance) SetNextState(state int) bool {
	if _, ok := i.sequence(state); !ok {
		return false
	}
	i.Animation.NextState = state
	return true
}

// Play starts the given sequence from its first frame. A negative sequence
// restarts the current state.
func (i *Instance) Play(sequence int) bool {
	if sequence < 0 {
		sequence = i.Animation.State
	}

	seq, ok := i.sequence(sequence)
	if !ok {
		return false
	}
	if sequence != i.Animation.State {
		i.Animation.NextState = sequence
	}
	i.Animation.State = sequence
	i.Animation.Frame = float64(seq.First)
	i.Animation.Playing = true
	return true
}

// Advance moves the animation forward by dt. When the current sequence ends
// the instance enters its next state.
func (i *Instance) Advance(dt time.Duration) {
	if !i.Animation.Playing || i.Model.FrameRate <= 0 {
		return
	}

	seq, ok := i.sequence(i.Animation.State)
	if !ok {
		i.Animation.Playing = false
		return
	}

	i.Animation.Frame += dt.Seconds() * i.Model.FrameRate
	if i.Animation.Frame >= float64(seq.Last+1) {
		overflow := i.Animation.Frame - float64(seq.Last+1)
		i.Animation.State = i.Animation.NextState
		seq, _ = i.sequence(i.Animation.State)
		i.Animation.Frame = float64(seq.First) + overflow

		// a dt longer than the whole next sequence restarts it
		if length := float64(seq.Last - seq.First + 1); overflow >= length {
			i.Animation.Frame = float64(seq.First)
		}
	}
}

// IsInLastFrame reports whether the current sequence is on its last frame.
func (i *Instance) IsInLastFrame() bool {
	seq, ok := i.sequence(i.Animation.State)
	if !ok {
		return false
	}
	return int(i.Animation.Frame) >= seq.Last
}

func (i *Instance) sequence(index int) (Sequence, bool) {
	if i.Model == nil || index < 0 || index >= len(i.Model.Sequences) {
		return Sequence{}, false
	}
	return i.Model.Sequences[index], true
}

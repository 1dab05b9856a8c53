package discriminator

// Latch holds the two one-way state flags of a stage discriminator.
// A stage becomes Trained after its first gradient step and Disabled
// once its success rate exceeds the early-stop threshold. Neither flag
// is ever reset. The zero value is an untrained, enabled stage.
type Latch struct {
	trained  bool
	disabled bool
}

// Trained returns whether the stage has taken a gradient step
func (l Latch) Trained() bool {
	return l.trained
}

// Enabled returns whether the stage is still being trained
func (l Latch) Enabled() bool {
	return !l.disabled
}

// markTrained records that the stage has taken a gradient step
func (l *Latch) markTrained() {
	l.trained = true
}

// disable stops training of the stage. It returns whether the latch
// changed state.
func (l *Latch) disable() bool {
	changed := !l.disabled
	l.disabled = true
	return changed
}

func (l Latch) String() string {
	state := "Untrained"
	if l.trained {
		state = "Trained"
	}
	if l.disabled {
		return state + "/Disabled"
	}
	return state + "/Enabled"
}

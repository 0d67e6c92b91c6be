package replay

// Completion is a handle on an operation started asynchronously. It cannot be
// cancelled; if the SDK never returns, Done never closes.
type Completion struct {
	done    chan struct{}
	outcome Outcome
}

func startCompletion(run func() Result) *Completion {
	c := &Completion{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		c.outcome = run().Outcome
	}()
	return c
}

// Done is closed once the operation has finished.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the operation finishes and returns its outcome.
func (c *Completion) Wait() Outcome {
	<-c.done
	return c.outcome
}

// Outcome returns the outcome and true if the operation has finished.
func (c *Completion) Outcome() (Outcome, bool) {
	select {
	case <-c.done:
		return c.outcome, true
	default:
		return "", false
	}
}

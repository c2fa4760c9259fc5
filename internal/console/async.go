package console

// Phase is the stage of one asynchronous operation.
type Phase int

// Phases of an Async value.
const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Async tracks one independent asynchronous operation. The last loaded value
// survives a later Start or Fail so a view can keep showing it while it
// reloads.
type Async[T any] struct {
	phase    Phase
	value    T
	hasValue bool
	err      error
}

// Start moves to Loading and clears any previous error.
func (a Async[T]) Start() Async[T] {
	a.phase = Loading
	a.err = nil
	return a
}

// Succeed moves to Loaded with v.
func (a Async[T]) Succeed(v T) Async[T] {
	a.phase = Loaded
	a.value = v
	a.hasValue = true
	a.err = nil
	return a
}

// Fail moves to Failed with err.
func (a Async[T]) Fail(err error) Async[T] {
	a.phase = Failed
	a.err = err
	return a
}

// Phase returns the current phase.
func (a Async[T]) Phase() Phase { return a.phase }

// Value returns the last loaded value and whether there is one.
func (a Async[T]) Value() (T, bool) { return a.value, a.hasValue }

// Err returns the error of a Failed operation.
func (a Async[T]) Err() error { return a.err }

// Loading reports whether the operation is in flight.
func (a Async[T]) Loading() bool { return a.phase == Loading }

package testsupport

import (
	"context"
	"slices"
	"sync"
)

// Call is one recorded external command.
type Call struct {
	Name string
	Args []string
}

// CommandRecorder records commands instead of running them. FailOn makes the
// nth call (1-based) return Err.
type CommandRecorder struct {
	mu     sync.Mutex
	calls  []Call
	FailOn int
	Err    error
	// Output is returned by Output for every call.
	Output []byte
}

// Run satisfies services.CommandRunner.
func (r *CommandRecorder) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: slices.Clone(args)})
	if r.FailOn > 0 && len(r.calls) == r.FailOn {
		return r.Err
	}
	return nil
}

// RunOutput satisfies services.OutputRunner.
func (r *CommandRecorder) RunOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := r.Run(ctx, name, args...); err != nil {
		return nil, err
	}
	return r.Output, nil
}

// Calls returns a copy of the recorded commands.
func (r *CommandRecorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

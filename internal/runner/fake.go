package runner

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation seen by Fake.
type Call struct {
	Name string
	Args []string
}

// Fake is a scripted Runner for tests. Handler decides the outcome of each call.
type Fake struct {
	Handler func(name string, args []string) (stdout, stderr []byte, err error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if f.Handler == nil {
		return nil, nil, nil
	}
	return f.Handler(name, args)
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CommandLine joins a call for assertions.
func (c Call) CommandLine() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

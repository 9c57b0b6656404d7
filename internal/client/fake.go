package client

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a scripted Client for tests: responses are returned in queue
// order, and every Complete call's messages are captured.
type Fake struct {
	mu        sync.Mutex
	Responses []Response
	next      int

	// Calls captures the message slice of each Complete invocation.
	Calls [][]Message
}

// Complete returns the next queued response.
func (f *Fake) Complete(_ context.Context, _ string, messages []Message) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, append([]Message(nil), messages...))

	if f.next >= len(f.Responses) {
		return nil, fmt.Errorf("fake client: no response queued for call %d", f.next+1)
	}
	resp := f.Responses[f.next]
	f.next++
	return &resp, nil
}

// CallCount returns how many completions were requested.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

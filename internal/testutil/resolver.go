package testutil

import (
	"context"
	"sync"

	"github.com/roach88/marqant/internal/resolver"
)

// Answer is one scripted reply of a FakeClient.
type Answer struct {
	Records []string
	Err     error
}

// Present answers with records.
func Present(records ...string) Answer {
	return Answer{Records: records}
}

// Absent answers with resolver.ErrNotFound.
func Absent() Answer {
	return Answer{Err: resolver.ErrNotFound}
}

// Failure answers with a transport error.
func Failure(err error) Answer {
	return Answer{Err: err}
}

// FakeClient is a scripted resolver.Client. Each name has a queue of
// answers; the last answer repeats once the queue is drained. Unknown names
// are absent.
//
// When Gate is non-nil every Query blocks until Gate is closed or the query
// context ends, which lets tests hold queries in flight.
//
// Thread-safety: safe for concurrent use.
type FakeClient struct {
	Gate chan struct{}

	mu      sync.Mutex
	answers map[string][]Answer
	calls   map[string]int
}

// NewFakeClient creates an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		answers: make(map[string][]Answer),
		calls:   make(map[string]int),
	}
}

// Set scripts the answers for a query name.
func (f *FakeClient) Set(qname string, answers ...Answer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[qname] = answers
}

// Calls returns how many queries reached qname.
func (f *FakeClient) Calls(qname string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[qname]
}

// Query implements resolver.Client.
func (f *FakeClient) Query(ctx context.Context, qname string) ([]string, error) {
	f.mu.Lock()
	f.calls[qname]++
	queue := f.answers[qname]
	var ans Answer
	switch len(queue) {
	case 0:
		ans = Absent()
	case 1:
		ans = queue[0]
	default:
		ans = queue[0]
		f.answers[qname] = queue[1:]
	}
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ans.Err != nil {
		return nil, ans.Err
	}
	return append([]string(nil), ans.Records...), nil
}

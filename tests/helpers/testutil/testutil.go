// Package testutil provides testing utilities and helpers for node tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/ma4z/Hydrenix-Node/internal/domain/ledger"
	"github.com/ma4z/Hydrenix-Node/internal/sandbox"
)

// MockProvisioner is a mock implementation of provision.Provisioner.
type MockProvisioner struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockProvisioner) Create(ctx context.Context, limits sandbox.Limits) (sandbox.Handle, error) {
	args := m.Called(ctx, limits)
	return args.Get(0).(sandbox.Handle), args.Error(1)
}

// Destroy mocks the Destroy method.
func (m *MockProvisioner) Destroy(ctx context.Context, handle sandbox.Handle) {
	m.Called(ctx, handle)
}

// MockLauncher is a mock implementation of provision.Launcher.
type MockLauncher struct {
	mock.Mock
}

// Launch mocks the Launch method.
func (m *MockLauncher) Launch(ctx context.Context, handle sandbox.Handle) (sandbox.Stream, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sandbox.Stream), args.Error(1)
}

// MockOrchestrator is a mock of the gateway's view of the orchestrator.
type MockOrchestrator struct {
	mock.Mock
}

// Provision mocks the Provision method.
func (m *MockOrchestrator) Provision(ctx context.Context, owner string, limits sandbox.Limits) (*ledger.Record, error) {
	args := m.Called(ctx, owner, limits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Record), args.Error(1)
}

// FakeStream is a sandbox.Stream fed from a fixed list of lines.
type FakeStream struct {
	lines chan string

	mu     sync.Mutex
	closed bool
}

// NewFakeStream returns a stream that yields lines and, when closeAfter is
// set, ends once they are consumed. Otherwise it stays open with no more
// output, like an agent that never prints its connection command.
func NewFakeStream(closeAfter bool, lines ...string) *FakeStream {
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	if closeAfter {
		close(ch)
	}
	return &FakeStream{lines: ch}
}

// Lines implements sandbox.Stream.
func (s *FakeStream) Lines() <-chan string { return s.lines }

// Close implements sandbox.Stream.
func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// NewMockProvisioner creates a provisioner whose Destroy calls are accepted
// and recorded.
func NewMockProvisioner(t *testing.T) *MockProvisioner {
	t.Helper()
	m := new(MockProvisioner)
	m.On("Destroy", mock.Anything, mock.Anything).Return().Maybe()
	return m
}

// SampleRecord returns a record as produced by a successful provisioning.
func SampleRecord(t *testing.T, owner string) *ledger.Record {
	t.Helper()
	return &ledger.Record{
		Owner:   owner,
		Handle:  "4f1c2a9e0b7d",
		Command: "ssh session: ssh Xy9Kq2@lon1.tmate.io",
	}
}

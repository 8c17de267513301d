package sandbox

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

const lineBuffer = 64

// AgentStream turns an agent's terminal output into lines. After Close it
// keeps reading and discarding output so the agent never blocks on a full
// terminal buffer.
type AgentStream struct {
	lines     chan string
	done      chan struct{}
	closeOnce sync.Once
}

func newAgentStream(r io.ReadCloser) *AgentStream {
	s := &AgentStream{
		lines: make(chan string, lineBuffer),
		done:  make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *AgentStream) pump(r io.ReadCloser) {
	defer close(s.lines)
	defer r.Close()

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			select {
			case s.lines <- line:
			case <-s.done:
			}
		}
		if err != nil {
			return
		}
	}
}

// Lines implements Stream.
func (s *AgentStream) Lines() <-chan string {
	return s.lines
}

// Close implements Stream.
func (s *AgentStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

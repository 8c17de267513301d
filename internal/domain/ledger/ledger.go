package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Delimiter separates the fields of one ledger line.
const Delimiter = "|"

// Record is one provisioned session. Records are never updated or deleted.
type Record struct {
	Owner   string `json:"owner"`
	Handle  string `json:"container_id"`
	Command string `json:"ssh_command"`
}

// Line renders the record as it is stored: owner|handle|command.
func (r Record) Line() string {
	return strings.Join([]string{r.Owner, r.Handle, r.Command}, Delimiter)
}

// ParseLine is the inverse of Record.Line. The command is the last field, so
// a delimiter inside it survives the round trip.
func ParseLine(line string) (Record, error) {
	parts := strings.SplitN(line, Delimiter, 3)
	if len(parts) != 3 {
		return Record{}, fmt.Errorf("malformed ledger line: %q", line)
	}
	return Record{Owner: parts[0], Handle: parts[1], Command: parts[2]}, nil
}

// Ledger is an append-only file of session records. Appends are serialized
// so concurrent requests never interleave partial lines.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// Open returns a ledger backed by path. The file is created on first append.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("ledger path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir %s: %w", dir, err)
		}
	}
	return &Ledger{path: path}, nil
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// Append writes one record as a single line.
func (l *Ledger) Append(r Record) error {
	if strings.Contains(r.Owner, Delimiter) || strings.Contains(r.Handle, Delimiter) {
		return fmt.Errorf("owner and handle must not contain %q", Delimiter)
	}
	line := r.Line()
	if strings.ContainsAny(line, "\r\n") {
		return errors.New("ledger record must be a single line")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", l.path, err)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append ledger %s: %w", l.path, err)
	}
	return f.Close()
}

// List returns every record in file order. Blank lines are skipped;
// malformed lines fail the whole read.
func (l *Ledger) List() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	defer f.Close()

	records := []Record{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", l.path, err)
	}
	return records, nil
}

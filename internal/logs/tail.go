package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	maxLineBytes        = 1024 * 1024
)

// Reader tails one log file by byte offset.
type Reader struct {
	path   string
	offset int64
	poll   time.Duration
}

// NewReader returns a reader positioned at the start of path.
func NewReader(path string) *Reader {
	return &Reader{path: path, poll: defaultPollInterval}
}

// Path is the file being read.
func (r *Reader) Path() string { return r.path }

// Offset is the byte position the next read starts from.
func (r *Reader) Offset() int64 { return r.offset }

// Last returns up to n trailing lines and moves the offset to the end of the
// file. A missing file yields no lines.
func (r *Reader) Last(n int) ([]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.offset = 0
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if err := ensureRegular(file); err != nil {
		return nil, err
	}

	var ring []string
	if n > 0 {
		ring = make([]string, 0, n)
	}
	scanner := newScanner(file)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}
	r.offset = end
	return ring, nil
}

// Next returns complete lines appended since the last read. A file shorter
// than the stored offset is treated as rotated and read from the start.
func (r *Reader) Next() ([]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.offset = 0
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %q is a directory", r.path)
	}
	if info.Size() < r.offset {
		r.offset = 0
	}
	if _, err := file.Seek(r.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial trailing line is picked up once its newline lands.
			break
		}
		if err != nil {
			return lines, fmt.Errorf("read log file: %w", err)
		}
		r.offset += int64(len(line))
		lines = append(lines, trimNewline(line))
	}
	return lines, nil
}

// Follow emits appended lines until ctx ends. It returns nil on cancellation.
func (r *Reader) Follow(ctx context.Context, emit func(string)) error {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		lines, err := r.Next()
		if err != nil {
			return err
		}
		for _, line := range lines {
			emit(line)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func ensureRegular(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("log path %q is a directory", file.Name())
	}
	return nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

func trimNewline(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

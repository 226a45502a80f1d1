// Package logstore persists activity records as an append-only CSV file.
//
// The file has the header "timestamp,app_name" and one line per focus
// change. A single process appends; any number of readers take size-bounded
// snapshots, so a line that is still being written is never observed.
package logstore

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/focuspulse/focuspulse/internal/models"
)

// TimestampLayout is the on-disk timestamp format: naive local time with
// microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Header is the first line of every log file.
var Header = []string{"timestamp", "app_name"}

// Store appends records to a log file.
type Store struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// Open opens or creates the log at path. Parent directories are created and
// the header is written when the file is new or empty.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open activity log %s", path)
	}

	s := &Store{path: path, f: f}
	if err := s.prepare(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// prepare writes the header into an empty file and cuts off a partial last
// line left by an interrupted writer, so a torn record never becomes
// readable once the next line is appended.
func (s *Store) prepare() error {
	info, err := s.f.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat activity log")
	}

	if info.Size() == 0 {
		return s.writeLine(Header)
	}

	end, err := completeSize(s.f, info.Size())
	if err != nil {
		return err
	}
	if end == info.Size() {
		return nil
	}

	if err := s.f.Truncate(end); err != nil {
		return errors.Wrap(err, "failed to truncate partial record")
	}
	if end == 0 {
		return s.writeLine(Header)
	}
	return nil
}

// completeSize returns the length of the file up to and including its last
// newline.
func completeSize(f *os.File, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)

	for end := size; end > 0; {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n, err := f.ReadAt(buf[:end-start], start)
		if err != nil && err != io.EOF {
			return 0, errors.Wrap(err, "failed to read activity log")
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Append writes one record as a complete line and flushes it to disk.
func (s *Store) Append(rec models.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return errors.New("activity log is closed")
	}

	return s.writeLine([]string{FormatTimestamp(rec.Timestamp), cleanName(rec.AppName)})
}

func (s *Store) writeLine(fields []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return errors.Wrap(err, "failed to encode record")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to encode record")
	}

	if _, err := s.f.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write activity log")
	}
	if err := s.f.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync activity log")
	}
	return nil
}

// Close closes the log file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return errors.Wrap(err, "failed to close activity log")
	}
	return nil
}

// cleanName keeps a label on a single line.
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	return strings.TrimSpace(name)
}

// FormatTimestamp renders t in the on-disk layout, in local time.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an on-disk timestamp. Naive values are local time and
// may carry any number of fractional digits. RFC 3339 values with an offset
// are accepted too.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Errorf("unrecognized timestamp %q", s)
	}
	return t, nil
}

// Snapshot is the content of the log at the moment it was read.
type Snapshot struct {
	Records []models.ActivityRecord
	Skipped int   // malformed rows
	Size    int64 // bytes covered by the snapshot
}

// ReadAll takes a snapshot of the log at path. A missing file is an empty log.
func ReadAll(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, errors.Wrapf(err, "failed to open activity log %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat activity log")
	}
	return Read(f, info.Size())
}

// Read parses at most size bytes from r. Bytes after the last newline belong
// to a line still being written and are ignored.
func Read(r io.Reader, size int64) (*Snapshot, error) {
	data, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read activity log")
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return &Snapshot{}, nil
	}
	data = data[:end+1]

	snap := &Snapshot{Size: int64(len(data))}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, ok, header := parseLine(line)
		if header {
			continue
		}
		if !ok {
			snap.Skipped++
			continue
		}
		snap.Records = append(snap.Records, rec)
	}
	return snap, nil
}

func parseLine(line string) (rec models.ActivityRecord, ok bool, header bool) {
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil || len(fields) < 2 {
		return rec, false, false
	}
	if strings.EqualFold(strings.TrimSpace(fields[0]), Header[0]) {
		return rec, false, true
	}

	ts, err := ParseTimestamp(fields[0])
	if err != nil {
		return rec, false, false
	}
	name := strings.TrimSpace(fields[1])
	if name == "" {
		return rec, false, false
	}

	// A third duration column may be present; durations are derived from
	// timestamps, so it is ignored.
	return models.ActivityRecord{Timestamp: ts, AppName: name}, true, false
}

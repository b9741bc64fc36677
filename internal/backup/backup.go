// Package backup writes automaton snapshots to disk and reads them back,
// migrating older layouts.
//
// A backup file is zstd-compressed. It starts with one JSON header line
// followed by a gob-encoded body whose layout depends on Header.Version.
package backup

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/lattice"
)

// CurrentVersion is the body layout written by Write.
const CurrentVersion = 2

var (
	ErrUnknownVersion = errors.New("backup: unknown snapshot version")
	ErrNoBackup       = errors.New("backup: no backup found")
)

// Header is the uncompressed-JSON first line of every backup.
type Header struct {
	Version   int       `json:"version"`
	Rule      string    `json:"rule"`
	Dim       int       `json:"dim"`
	Step      uint64    `json:"step"`
	CreatedAt time.Time `json:"created_at"`
}

// snapshotV1 stored one slice per shell and had no background or
// topology.
type snapshotV1 struct {
	Rule          string
	Dim           int
	Initial       int64
	Step          uint64
	GrowthPending bool
	Shells        [][]int64
}

func (s snapshotV1) migrate() (*automaton.Snapshot, error) {
	out := &automaton.Snapshot{
		Rule:          s.Rule,
		Dim:           s.Dim,
		Initial:       s.Initial,
		Step:          s.Step,
		GrowthPending: s.GrowthPending,
		Changed:       true,
		Max:           len(s.Shells) - 1,
	}
	for x, shell := range s.Shells {
		if want := lattice.ShellSize(s.Dim, x); len(shell) != want {
			return nil, fmt.Errorf("%w: v1 shell %d has %d cells, want %d", automaton.ErrSnapshotMismatch, x, len(shell), want)
		}
		out.Cells = append(out.Cells, shell...)
	}
	return out, nil
}

// Write stores s at path in the current layout.
func Write(path string, s *automaton.Snapshot) error {
	h := Header{
		Version:   CurrentVersion,
		Rule:      s.Rule,
		Dim:       s.Dim,
		Step:      s.Step,
		CreatedAt: time.Now().UTC(),
	}
	return writeFile(path, h, s)
}

func writeFile(path string, h Header, body any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, h, body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(f *os.File, h Header, body any) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(h)
	if err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(body); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Read loads a backup of any known version as a current snapshot.
func Read(path string) (Header, *automaton.Snapshot, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, nil, fmt.Errorf("backup: read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, nil, fmt.Errorf("backup: parse header: %w", err)
	}

	switch h.Version {
	case 1:
		var v1 snapshotV1
		if err := gob.NewDecoder(br).Decode(&v1); err != nil {
			return h, nil, fmt.Errorf("gob decode: %w", err)
		}
		s, err := v1.migrate()
		return h, s, err
	case CurrentVersion:
		var s automaton.Snapshot
		if err := gob.NewDecoder(br).Decode(&s); err != nil {
			return h, nil, fmt.Errorf("gob decode: %w", err)
		}
		return h, &s, nil
	default:
		return h, nil, fmt.Errorf("%w: %d", ErrUnknownVersion, h.Version)
	}
}

// Save writes the state of a to path.
func Save(path string, a *automaton.Automaton) error {
	s, err := a.State()
	if err != nil {
		return err
	}
	return Write(path, s)
}

// Load restores an automaton from path. opts are passed to
// automaton.Restore.
func Load(path string, opts ...automaton.Option) (*automaton.Automaton, error) {
	_, s, err := Read(path)
	if err != nil {
		return nil, err
	}
	return automaton.Restore(s, opts...)
}

const ext = ".snap.zst"

// FileName names the backup of a given step.
func FileName(step uint64) string {
	return fmt.Sprintf("step_%d%s", step, ext)
}

// Path places the backup of a under root, grouped by its sub folder.
func Path(root string, a *automaton.Automaton) string {
	return filepath.Join(root, filepath.FromSlash(a.SubFolderPath()), FileName(a.Step()))
}

// List returns the steps backed up in dir, ascending.
func List(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var steps []uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "step_") || !strings.HasSuffix(name, ext) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "step_"), ext), 10, 64)
		if err != nil {
			continue
		}
		steps = append(steps, n)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	return steps, nil
}

// Latest returns the path of the highest-step backup in dir.
func Latest(dir string) (string, error) {
	steps, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(steps) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoBackup, dir)
	}
	return filepath.Join(dir, FileName(steps[len(steps)-1])), nil
}

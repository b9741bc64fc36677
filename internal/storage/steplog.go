package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// StepLog appends one JSON record per line to a zstd stream. Each Write is
// flushed so a crashed run keeps every completed step.
type StepLog struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

const stepLogName = "steps.jsonl.zst"

// OpenStepLog opens the step log of a run directory for appending. A
// resumed run adds a new zstd frame to the same file.
func OpenStepLog(runDir string) (*StepLog, error) {
	path := filepath.Join(runDir, stepLogName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &StepLog{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (l *StepLog) Write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return errors.New("storage: step log closed")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.enc.Flush()
}

func (l *StepLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err1 error
	if l.w != nil {
		_ = l.w.Flush()
	}
	if l.enc != nil {
		err1 = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
	l.w = nil
	return err1
}

// ReadStepLog decodes every record of a run's step log, calling fn with
// the raw JSON of each line.
func ReadStepLog(runDir string, fn func(line []byte) error) error {
	f, err := os.Open(filepath.Join(runDir, stepLogName))
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 128*1024)
	for {
		line, err := br.ReadBytes('\n')
		if rec := bytes.TrimRight(line, "\n"); len(rec) > 0 {
			if err := fn(rec); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

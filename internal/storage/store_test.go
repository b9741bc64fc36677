package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/rules"
)

func testMeta(t *testing.T) RunMetadata {
	t.Helper()
	a, err := automaton.New(rules.SpreadIntegerValue{}, 2, 1000, automaton.WithBackground(-1))
	if err != nil {
		t.Fatal(err)
	}
	return Describe(a)
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := testMeta(t)
	meta.Steps = 2
	meta.Metrics["excess_drift"] = 0
	history := []automaton.Stats{
		{Step: 0, MaxX: 1, Excess: 1001, MinValue: -1, MaxValue: 1000, NonBackground: 1},
		{Step: 1, MaxX: 1, Changed: true, Toppled: 1, Excess: 1001, MinValue: -1, MaxValue: 200, NonBackground: 5},
	}
	if err := st.Save(meta, history); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.Load(meta.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Rule != "SpreadIntegerValue" || loaded.Dim != 2 || loaded.Background != -1 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.SubFolder != "SpreadIntegerValue/2D/1000/background_-1" {
		t.Errorf("unexpected sub folder %s", loaded.SubFolder)
	}

	steps, err := st.LoadSteps(meta.ID)
	if err != nil {
		t.Fatalf("load steps failed: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[1] != history[1] {
		t.Errorf("expected %+v, got %+v", history[1], steps[1])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	older := testMeta(t)
	older.Timestamp = time.Now().Add(-time.Hour)
	newer := testMeta(t)
	for _, m := range []RunMetadata{older, newer} {
		if err := st.Save(m, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.BaseDir(), "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Error("expected newest run first")
	}
}

func TestStoreFileStructure(t *testing.T) {
	st := New(t.TempDir())
	meta := testMeta(t)
	if err := st.Begin(RunMetadata{}); err == nil {
		t.Error("expected error for a run without id")
	}
	if err := st.Save(meta, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "steps.csv"} {
		if _, err := os.Stat(filepath.Join(st.RunDir(meta.ID), name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStepLog(t *testing.T) {
	dir := t.TempDir()

	for session := 0; session < 2; session++ {
		l, err := OpenStepLog(dir)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			if err := l.Write(automaton.Stats{Step: uint64(session*3 + i), Toppled: i}); err != nil {
				t.Fatal(err)
			}
		}
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
		if err := l.Write(automaton.Stats{}); err == nil {
			t.Error("expected write after close to fail")
		}
	}

	var got []uint64
	err := ReadStepLog(dir, func(line []byte) error {
		var st automaton.Stats
		if err := json.Unmarshal(line, &st); err != nil {
			return err
		}
		got = append(got, st.Step)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 records across both frames, got %v", got)
	}
	for i, step := range got {
		if step != uint64(i) {
			t.Errorf("record %d: expected step %d, got %d", i, i, step)
		}
	}
}

func TestIndex(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "db", "runs.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	a := testMeta(t)
	a.Timestamp = time.Now().Add(-time.Minute)
	a.Steps = 40
	a.Stable = true

	b := testMeta(t)
	b.Rule = "AbelianSandpile"
	b.Dim = 3
	b.Steps = 7

	c := testMeta(t)
	c.Steps = 3

	for _, m := range []RunMetadata{a, b, c} {
		if err := ix.Record(m); err != nil {
			t.Fatal(err)
		}
	}
	c.Steps = 12
	if err := ix.Record(c); err != nil {
		t.Fatal(err)
	}

	all, err := ix.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}

	siv, err := ix.Query(Filter{Rule: "SpreadIntegerValue", Dim: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(siv) != 2 || siv[0].ID != c.ID || siv[1].ID != a.ID {
		t.Fatalf("unexpected siv runs %+v", siv)
	}
	if siv[0].Steps != 12 {
		t.Errorf("expected replaced steps 12, got %d", siv[0].Steps)
	}
	if !siv[1].Timestamp.Equal(a.Timestamp) {
		t.Errorf("timestamp %v != %v", siv[1].Timestamp, a.Timestamp)
	}

	stable, err := ix.Query(Filter{StableOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(stable) != 1 || stable[0].ID != a.ID {
		t.Errorf("expected only the stable run, got %+v", stable)
	}

	if _, err := OpenIndex(""); err == nil {
		t.Error("expected error for empty path")
	}
}

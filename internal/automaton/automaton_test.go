package automaton

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/aethersim/internal/grid"
	"github.com/san-kum/aethersim/internal/lattice"
	"github.com/san-kum/aethersim/internal/rules"
)

func mustNew(t *testing.T, rule rules.Rule, dim int, initial int64, opts ...Option) *Automaton {
	t.Helper()
	a, err := New(rule, dim, initial, opts...)
	if err != nil {
		t.Fatalf("New(%s, %d, %d): %v", rule.Name(), dim, initial, err)
	}
	return a
}

func stepN(t *testing.T, a interface {
	NextStep(context.Context) (bool, error)
}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := a.NextStep(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i+1, err)
		}
	}
}

func get(t *testing.T, g interface {
	Get(lattice.Coord) (int64, error)
}, c ...int) int64 {
	t.Helper()
	v, err := g.Get(lattice.Coord(c))
	if err != nil {
		t.Fatalf("Get(%v): %v", c, err)
	}
	return v
}

func TestAether1DFirstStep(t *testing.T) {
	a := mustNew(t, rules.Aether{}, 1, 4)
	changed, err := a.NextStep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected the first step to change the lattice")
	}
	want := map[int]int64{-2: 0, -1: 1, 0: 2, 1: 1, 2: 0}
	for x, v := range want {
		if got := get(t, a, x); got != v {
			t.Errorf("x=%d: expected %d, got %d", x, v, got)
		}
	}
	if a.Step() != 1 {
		t.Errorf("expected step 1, got %d", a.Step())
	}
}

func TestSIV2DSettles(t *testing.T) {
	a := mustNew(t, rules.SpreadIntegerValue{}, 2, 32)

	stepN(t, a, 1)
	if v := get(t, a, 0, 0); v != 8 {
		t.Errorf("step 1 centre: expected 8, got %d", v)
	}
	for _, c := range [][]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if v := get(t, a, c...); v != 6 {
			t.Errorf("step 1 %v: expected 6, got %d", c, v)
		}
	}

	stepN(t, a, 2)
	want := []struct {
		c []int
		v int64
	}{
		{[]int{0, 0}, 4},
		{[]int{1, 0}, 4},
		{[]int{0, -1}, 4},
		{[]int{1, 1}, 2},
		{[]int{-1, 1}, 2},
		{[]int{2, 0}, 1},
		{[]int{0, -2}, 1},
		{[]int{2, 1}, 0},
	}
	for _, w := range want {
		if got := get(t, a, w.c...); got != w.v {
			t.Errorf("step 3 %v: expected %d, got %d", w.c, w.v, got)
		}
	}

	changed, err := a.NextStep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("expected step 4 to be stable")
	}
}

func TestZeroSourceNeverChanges(t *testing.T) {
	a := mustNew(t, rules.Aether{}, 1, 0)
	for i := 0; i < 5; i++ {
		changed, err := a.NextStep(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if changed {
			t.Fatalf("step %d changed a zero lattice", i+1)
		}
	}
	if a.MaxX() != 1 {
		t.Errorf("expected store to stay at max 1, got %d", a.MaxX())
	}
}

func TestConstructorValidation(t *testing.T) {
	tests := []struct {
		name string
		rule rules.Rule
		dim  int
		init int64
		opts []Option
		want error
	}{
		{"zero dim", rules.Aether{}, 0, 10, nil, ErrUnsupportedConfig},
		{"five dims", rules.Aether{}, 5, 10, nil, ErrUnsupportedConfig},
		{"even side", rules.Aether{}, 2, 10, []Option{WithEnclosedSide(4)}, ErrUnsupportedConfig},
		{"background on aether", rules.Aether{}, 2, 10, []Option{WithBackground(3)}, ErrUnsupportedConfig},
		{"negative sandpile", rules.AbelianSandpile{}, 2, -1, nil, rules.ErrNegativeSource},
		{"unsafe aether", rules.Aether{}, 2, rules.MinInt64Source(2) - 1, nil, rules.ErrUnsafeInitialValue},
		{"siv far from background", rules.SpreadIntegerValue{}, 2, math.MaxInt64 - 1, []Option{WithBackground(-2)}, rules.ErrUnsafeInitialValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rule, tt.dim, tt.init, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := New(rules.Aether{}, 2, rules.MinInt64Source(2)); err != nil {
		t.Errorf("minimum safe source rejected: %v", err)
	}
	if _, err := New(rules.SpreadIntegerValue{}, 3, 10, WithBackground(-2), WithEnclosedSide(7)); err != nil {
		t.Errorf("siv with background on torus rejected: %v", err)
	}
}

func TestFacade(t *testing.T) {
	a := mustNew(t, rules.SpreadIntegerValue{}, 2, 100, WithBackground(2))
	if a.SubFolderPath() != "SpreadIntegerValue/2D/100/background_2" {
		t.Errorf("unexpected sub folder %q", a.SubFolderPath())
	}
	if get(t, a, 40, -3) != 2 {
		t.Error("far point should read the background")
	}
	for _, c := range []lattice.Coord{{math.MinInt, 0}, {math.MaxInt, 0}, {-5, math.MinInt}} {
		if v, err := a.Get(c); err != nil || v != 2 {
			t.Errorf("Get(%v) = %d, %v; want background", c, v, err)
		}
	}
	if _, err := a.Get(lattice.Coord{1}); !errors.Is(err, lattice.ErrDimension) {
		t.Errorf("expected dimension error, got %v", err)
	}

	stepN(t, a, 4)
	b := a.Bounds()
	if b.Max[0] != a.MaxX() || b.Min[1] != a.MinX() {
		t.Errorf("bounds %v disagree with max %d", b, a.MaxX())
	}
	if v := a.GetCanonicalUnchecked(lattice.Coord{1, 0}); v != get(t, a, 0, -1) {
		t.Errorf("unchecked read %d disagrees with Get", v)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on non-canonical unchecked read")
		}
	}()
	a.GetCanonicalUnchecked(lattice.Coord{0, 1})
}

func TestEnclosedName(t *testing.T) {
	a := mustNew(t, rules.Aether{}, 3, 50, WithEnclosedSide(9))
	if a.SubFolderPath() != "Aether/3D/50/enclosed_9" {
		t.Errorf("unexpected sub folder %q", a.SubFolderPath())
	}
	if a.MaxX() != 4 {
		t.Errorf("expected fixed max 4, got %d", a.MaxX())
	}
}

// sameState compares both engines over the larger of their extents.
func sameState(t *testing.T, a *Automaton, f *Full) {
	t.Helper()
	r := a.MaxX()
	if f.MaxX() > r {
		r = f.MaxX()
	}
	view := cubeGrid{dim: a.Dim(), half: r + 1}
	err := grid.ForEach(view, func(c lattice.Coord, _ int64) error {
		want, _ := f.Get(c)
		got, err := a.Get(c)
		if err != nil {
			return err
		}
		if got != want {
			t.Fatalf("step %d %v: symmetric %d, full %d", a.Step(), c, got, want)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMatchesFullEngine(t *testing.T) {
	tests := []struct {
		name  string
		rule  rules.Rule
		dim   int
		init  int64
		steps int
		opts  []Option
	}{
		{"aether 1d", rules.Aether{}, 1, 500, 60, nil},
		{"aether 2d", rules.Aether{}, 2, 1000, 40, nil},
		{"aether 2d negative", rules.Aether{}, 2, -1000, 40, nil},
		{"aether 3d", rules.Aether{}, 3, 300, 20, nil},
		{"aether 4d", rules.Aether{}, 4, 100, 8, nil},
		{"siv 2d", rules.SpreadIntegerValue{}, 2, 500, 40, nil},
		{"siv 3d background", rules.SpreadIntegerValue{}, 3, 200, 15, []Option{WithBackground(7)}},
		{"siv 2d negative background", rules.SpreadIntegerValue{}, 2, -300, 30, []Option{WithBackground(-4)}},
		{"sandpile 2d", rules.AbelianSandpile{}, 2, 200, 60, nil},
		{"sandpile 3d", rules.AbelianSandpile{}, 3, 150, 30, nil},
		{"near aether 1 2d", rules.NearAether1{}, 2, 400, 30, nil},
		{"near aether 2 2d", rules.NearAether2{}, 2, 400, 30, nil},
		{"near aether 3 3d", rules.NearAether3{}, 3, 200, 20, nil},
		{"aether 2d enclosed", rules.Aether{}, 2, 1000, 40, []Option{WithEnclosedSide(7)}},
		{"sandpile 2d enclosed", rules.AbelianSandpile{}, 2, 60, 40, []Option{WithEnclosedSide(5)}},
		{"siv 3d enclosed", rules.SpreadIntegerValue{}, 3, 300, 20, []Option{WithEnclosedSide(5)}},
		{"sandpile 1d torus of one", rules.AbelianSandpile{}, 1, 10, 5, []Option{WithEnclosedSide(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustNew(t, tt.rule, tt.dim, tt.init, tt.opts...)
			f, err := NewFull(tt.rule, tt.dim, tt.init, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < tt.steps; i++ {
				ca, err := a.NextStep(context.Background())
				if err != nil {
					t.Fatalf("symmetric step %d: %v", i+1, err)
				}
				cf, err := f.NextStep(context.Background())
				if err != nil {
					t.Fatalf("full step %d: %v", i+1, err)
				}
				if ca != cf {
					t.Fatalf("step %d: changed %v vs %v", i+1, ca, cf)
				}
				if a.MaxX() != f.MaxX() {
					t.Fatalf("step %d: extent %d vs %d", i+1, a.MaxX(), f.MaxX())
				}
				sameState(t, a, f)
			}
		})
	}
}

func TestConservation(t *testing.T) {
	tests := []struct {
		rule rules.Rule
		dim  int
		init int64
		opts []Option
	}{
		{rules.Aether{}, 3, 12345, nil},
		{rules.Aether{}, 4, -777, nil},
		{rules.SpreadIntegerValue{}, 2, 999, []Option{WithBackground(3)}},
		{rules.AbelianSandpile{}, 4, 300, nil},
		{rules.NearAether2{}, 3, 5000, []Option{WithEnclosedSide(5)}},
	}
	for _, tt := range tests {
		a := mustNew(t, tt.rule, tt.dim, tt.init, tt.opts...)
		want := tt.init - a.Background()
		for i := 0; i < 25; i++ {
			stepN(t, a, 1)
			s, err := a.Stats()
			if err != nil {
				t.Fatal(err)
			}
			if s.Excess != want {
				t.Fatalf("%s %dD step %d: excess %d, want %d", tt.rule.Name(), tt.dim, i+1, s.Excess, want)
			}
		}
	}
}

func TestGrowthIsGradual(t *testing.T) {
	a := mustNew(t, rules.Aether{}, 2, 5000)
	prev := a.MaxX()
	pending := a.GrowthPending()
	for i := 0; i < 50; i++ {
		stepN(t, a, 1)
		switch {
		case pending && a.MaxX() != prev+1:
			t.Fatalf("step %d: pending growth gave max %d from %d", i+1, a.MaxX(), prev)
		case !pending && a.MaxX() != prev:
			t.Fatalf("step %d: unexpected growth to %d from %d", i+1, a.MaxX(), prev)
		}
		prev, pending = a.MaxX(), a.GrowthPending()
	}
	if prev < 3 {
		t.Errorf("expected the lattice to grow, max is %d", prev)
	}
}

type countingFactory struct {
	calls  int
	failAt int
}

func (f *countingFactory) build(dim, max int, background int64) (lattice.Store, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("no room")
	}
	return lattice.NewJagged(dim, max, background)
}

// failingStore rejects writes after a number of calls.
type failingStore struct {
	lattice.Store
	left int
}

var errWrite = errors.New("write refused")

func (s *failingStore) Add(c lattice.Coord, d int64) error {
	if s.left == 0 {
		return errWrite
	}
	s.left--
	return s.Store.Add(c, d)
}

func TestFailedStepKeepsState(t *testing.T) {
	cf := &countingFactory{failAt: 4}
	a := mustNew(t, rules.Aether{}, 2, 100, WithStoreFactory(cf.build))
	stepN(t, a, 2)
	before, err := a.State()
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.NextStep(context.Background())
	var se *StepError
	if !errors.As(err, &se) || se.Step != 3 {
		t.Fatalf("expected StepError for step 3, got %v", err)
	}
	if a.Step() != 2 {
		t.Errorf("step advanced to %d on failure", a.Step())
	}
	after, _ := a.State()
	if len(after.Cells) != len(before.Cells) {
		t.Fatal("store replaced on failure")
	}
	for i := range before.Cells {
		if before.Cells[i] != after.Cells[i] {
			t.Fatalf("cell %d changed on failure", i)
		}
	}

	writes := 3
	a.factory = func(dim, max int, bg int64) (lattice.Store, error) {
		j, err := lattice.NewJagged(dim, max, bg)
		return &failingStore{Store: j, left: writes}, err
	}
	if _, err := a.NextStep(context.Background()); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if a.Step() != 2 {
		t.Errorf("step advanced to %d after partial sweep", a.Step())
	}
}

func TestCancelledStep(t *testing.T) {
	a := mustNew(t, rules.Aether{}, 2, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.NextStep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if a.Step() != 0 {
		t.Errorf("cancelled step advanced to %d", a.Step())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := mustNew(t, rules.SpreadIntegerValue{}, 3, 400, WithBackground(1))
	stepN(t, a, 12)
	s, err := a.State()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Restore(s)
	if err != nil {
		t.Fatal(err)
	}
	if b.Step() != a.Step() || b.SubFolderPath() != a.SubFolderPath() {
		t.Fatalf("restored header differs: step %d %q", b.Step(), b.SubFolderPath())
	}
	for i := 0; i < 10; i++ {
		stepN(t, a, 1)
		stepN(t, b, 1)
	}
	sa, _ := a.State()
	sb, _ := b.State()
	if sa.Max != sb.Max || len(sa.Cells) != len(sb.Cells) {
		t.Fatalf("evolutions diverged: max %d vs %d", sa.Max, sb.Max)
	}
	for i := range sa.Cells {
		if sa.Cells[i] != sb.Cells[i] {
			t.Fatalf("cell %d: %d vs %d", i, sa.Cells[i], sb.Cells[i])
		}
	}

	s.Cells = s.Cells[1:]
	if _, err := Restore(s); !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("expected mismatch for truncated cells, got %v", err)
	}
	s.Rule = "Sunflower"
	if _, err := Restore(s); err == nil {
		t.Error("expected unknown rule error")
	}
}

func TestCompliance(t *testing.T) {
	a := mustNew(t, rules.Aether{}, 1, 4, WithToppleTracking())
	if _, err := CheckCompliance(a); err == nil {
		t.Error("expected error before the first sweep")
	}
	stepN(t, a, 1)
	r, err := CheckCompliance(a)
	if err != nil {
		t.Fatal(err)
	}
	if r.Points != 3 || r.Violations != 0 {
		t.Errorf("expected 3 compliant points, got %+v", r)
	}
	top, err := a.ToppledLastStep(lattice.Coord{0})
	if err != nil || !top {
		t.Errorf("expected origin to topple, got %v %v", top, err)
	}

	b := mustNew(t, rules.Aether{}, 1, 4)
	stepN(t, b, 1)
	if _, err := CheckCompliance(b); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("expected tracking error, got %v", err)
	}
}

func TestRandomFullConserves(t *testing.T) {
	f, err := NewRandomFull(rules.Aether{}, 2, 4, -50, 50, 7)
	if err != nil {
		t.Fatal(err)
	}
	want := f.Excess()
	stepN(t, f, 30)
	if f.Excess() != want {
		t.Errorf("excess %d, want %d", f.Excess(), want)
	}

	g, _ := NewRandomFull(rules.Aether{}, 2, 4, -50, 50, 7)
	if g.Excess() != want {
		t.Error("same seed produced a different configuration")
	}
	if _, err := NewRandomFull(rules.AbelianSandpile{}, 2, 3, -1, 5, 1); !errors.Is(err, rules.ErrNegativeSource) {
		t.Errorf("expected negative source error, got %v", err)
	}
}

func BenchmarkAether3D(b *testing.B) {
	for i := 0; i < b.N; i++ {
		a, _ := New(rules.Aether{}, 3, 100000)
		for j := 0; j < 50; j++ {
			if _, err := a.NextStep(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkFullAether3D(b *testing.B) {
	for i := 0; i < b.N; i++ {
		f, _ := NewFull(rules.Aether{}, 3, 100000)
		for j := 0; j < 50; j++ {
			if _, err := f.NextStep(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	}
}

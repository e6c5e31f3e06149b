package vmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type shaped struct {
	shape string
	val   float64
}

func (s shaped) Shape() string { return s.shape }

func TestStack(t *testing.T) {
	b, err := Stack(shaped{"a", 1}, shaped{"a", 2}, shaped{"a", 3})
	if err != nil {
		t.Fatalf("stack failed: %v", err)
	}
	if b.Len() != 3 || b.At(2).val != 3 {
		t.Errorf("expected 3 lanes ending in 3, got %d lanes", b.Len())
	}

	if _, err := Stack(shaped{"a", 1}, shaped{"b", 2}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := Stack[shaped](); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestMapMatchesSingleCalls(t *testing.T) {
	square := func(x float64) (float64, error) { return x * x * 1.0000001, nil }
	for _, n := range []int{1, 2, 17} {
		in := make([]float64, n)
		for i := range in {
			in[i] = float64(i) * 0.37
		}
		got, err := Map(square, Of(in...))
		if err != nil {
			t.Fatalf("map failed: %v", err)
		}
		want := make([]float64, n)
		for i, x := range in {
			want[i], _ = square(x)
		}
		if diff := cmp.Diff(want, got.Lanes()); diff != "" {
			t.Errorf("n=%d: lanes differ (-want +got):\n%s", n, diff)
		}
	}
}

func TestMap2Axes(t *testing.T) {
	sub := func(a, b float64) (float64, error) { return a - b, nil }
	xs := Of(1.0, 2.0, 3.0)
	ys := Of(10.0, 20.0, 30.0)

	tests := []struct {
		name string
		a    Arg[float64]
		b    Arg[float64]
		want []float64
	}{
		{"both batched", Over(xs), Over(ys), []float64{-9, -18, -27}},
		{"first shared", Shared(100.0), Over(ys), []float64{90, 80, 70}},
		{"second shared", Over(xs), Shared(1.0), []float64{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Map2(sub, tt.a, tt.b)
			if err != nil {
				t.Fatalf("map2 failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got.Lanes()); diff != "" {
				t.Errorf("lanes differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMap2Errors(t *testing.T) {
	sub := func(a, b float64) (float64, error) { return a - b, nil }
	if _, err := Map2(sub, Over(Of(1.0, 2.0)), Over(Of(1.0))); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := Map2(sub, Shared(1.0), Shared(2.0)); !errors.Is(err, ErrNoBatchAxis) {
		t.Errorf("expected ErrNoBatchAxis, got %v", err)
	}
}

var errOdd = errors.New("odd lane")

func TestMapLaneError(t *testing.T) {
	fn := func(i int) (int, error) {
		if i == 3 {
			return 0, errOdd
		}
		return i, nil
	}
	_, err := Map(fn, Of(0, 1, 2, 3))
	if !errors.Is(err, errOdd) {
		t.Fatalf("expected wrapped lane error, got %v", err)
	}
	if want := fmt.Sprintf("lane 3: %v", errOdd); err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestBatchIsCopied(t *testing.T) {
	in := []int{1, 2, 3}
	b := Of(in...)
	in[0] = 99
	lanes := b.Lanes()
	lanes[1] = 99
	if b.At(0) != 1 || b.At(1) != 2 {
		t.Errorf("expected batch to be unaffected, got %v", b.Lanes())
	}
	if c := Concat(b, Of(4)); c.Len() != 4 || c.At(3) != 4 {
		t.Errorf("expected concatenated batch of 4, got %v", c.Lanes())
	}
}

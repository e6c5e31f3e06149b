// Package vmap lifts single-instance functions to batches of instances.
//
// A Batch holds one value per lane. Map and Map2 apply a function lane by
// lane; each argument is either shared by every lane or batched along the
// lane axis. Lanes are evaluated concurrently and every lane writes only its
// own output slot, so the result of lane i is exactly fn applied to the
// inputs of lane i regardless of scheduling.
package vmap

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrShapeMismatch is returned when lanes disagree in structure or two
	// batched arguments disagree in size.
	ErrShapeMismatch = errors.New("vmap: structural mismatch between lanes")

	// ErrNoBatchAxis is returned when no argument is batched.
	ErrNoBatchAxis = errors.New("vmap: no batched argument")

	// ErrEmptyBatch is returned when stacking zero values.
	ErrEmptyBatch = errors.New("vmap: empty batch")
)

// Batch is an immutable sequence of lanes.
type Batch[T any] struct {
	lanes []T
}

// Of builds a batch without structure checks.
func Of[T any](lanes ...T) Batch[T] {
	c := make([]T, len(lanes))
	copy(c, lanes)
	return Batch[T]{lanes: c}
}

func (b Batch[T]) Len() int { return len(b.lanes) }

func (b Batch[T]) At(i int) T { return b.lanes[i] }

// Lanes returns a copy of the lane slice.
func (b Batch[T]) Lanes() []T {
	c := make([]T, len(b.lanes))
	copy(c, b.lanes)
	return c
}

// Concat joins batches lane-wise in order.
func Concat[T any](batches ...Batch[T]) Batch[T] {
	var lanes []T
	for _, b := range batches {
		lanes = append(lanes, b.lanes...)
	}
	return Batch[T]{lanes: lanes}
}

// Shaped values describe the part of themselves that must agree across
// lanes of a batch.
type Shaped interface {
	Shape() string
}

// Stack builds a batch from values that share one shape.
func Stack[T Shaped](items ...T) (Batch[T], error) {
	if len(items) == 0 {
		return Batch[T]{}, ErrEmptyBatch
	}
	want := items[0].Shape()
	for i, it := range items[1:] {
		if got := it.Shape(); got != want {
			return Batch[T]{}, fmt.Errorf("%w: lane %d has shape %s, lane 0 has %s", ErrShapeMismatch, i+1, got, want)
		}
	}
	return Of(items...), nil
}

// Arg is a function argument that is either shared by all lanes or batched.
type Arg[T any] struct {
	single  T
	batch   Batch[T]
	batched bool
}

// Shared broadcasts v to every lane.
func Shared[T any](v T) Arg[T] {
	return Arg[T]{single: v}
}

// Over maps the argument along the lane axis of b.
func Over[T any](b Batch[T]) Arg[T] {
	return Arg[T]{batch: b, batched: true}
}

func (a Arg[T]) Batched() bool { return a.batched }

func (a Arg[T]) at(i int) T {
	if a.batched {
		return a.batch.lanes[i]
	}
	return a.single
}

// Map applies fn to every lane of b.
func Map[A, R any](fn func(A) (R, error), b Batch[A]) (Batch[R], error) {
	return run(b.Len(), func(i int) (R, error) { return fn(b.lanes[i]) })
}

// Map2 applies fn lane-wise to two arguments. At least one argument must be
// batched; two batched arguments must have the same size.
func Map2[A, B, R any](fn func(A, B) (R, error), a Arg[A], b Arg[B]) (Batch[R], error) {
	n, err := lanes(a.batched, a.batch.Len(), b.batched, b.batch.Len())
	if err != nil {
		return Batch[R]{}, err
	}
	return run(n, func(i int) (R, error) { return fn(a.at(i), b.at(i)) })
}

func lanes(aBatched bool, aLen int, bBatched bool, bLen int) (int, error) {
	switch {
	case aBatched && bBatched:
		if aLen != bLen {
			return 0, fmt.Errorf("%w: batch sizes %d and %d", ErrShapeMismatch, aLen, bLen)
		}
		return aLen, nil
	case aBatched:
		return aLen, nil
	case bBatched:
		return bLen, nil
	default:
		return 0, ErrNoBatchAxis
	}
}

func run[R any](n int, lane func(int) (R, error)) (Batch[R], error) {
	out := make([]R, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			r, err := lane(i)
			if err != nil {
				return fmt.Errorf("lane %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch[R]{}, err
	}
	return Batch[R]{lanes: out}, nil
}

package rcmg

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/go-logr/logr"
	"github.com/san-kum/chainsim/internal/vmap"
)

// Stream yields batch k from SplitSeed(seed, k). Reset rewinds it.
type Stream struct {
	gen  BatchedGenerator
	seed uint64
	next uint64
}

func NewStream(gen BatchedGenerator, seed uint64) *Stream {
	return &Stream{gen: gen, seed: seed}
}

func (s *Stream) Next() (vmap.Batch[Trajectory], error) {
	k := s.next
	s.next++
	b, err := s.gen(SplitSeed(s.seed, k))
	if err != nil {
		return vmap.Batch[Trajectory]{}, fmt.Errorf("batch %d: %w", k, err)
	}
	return b, nil
}

func (s *Stream) Reset() { s.next = 0 }

// Dataset holds pre-generated trajectories and serves them in batches of a
// fixed size, optionally reshuffled every epoch.
type Dataset struct {
	items     []Trajectory
	batchSize int
	seed      uint64
	shuffle   bool
}

type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	shuffle bool
	log     logr.Logger
}

// Shuffle permutes trajectories across batches at every epoch.
func Shuffle() DatasetOption {
	return func(o *datasetOptions) { o.shuffle = true }
}

func DatasetLogger(l logr.Logger) DatasetOption {
	return func(o *datasetOptions) { o.log = l }
}

// Offline draws batches from gen up front. The batch size of the dataset is
// the lane count of gen's batches.
func Offline(ctx context.Context, gen BatchedGenerator, batches int, seed uint64, opts ...DatasetOption) (*Dataset, error) {
	o := datasetOptions{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if batches < 1 {
		return nil, fmt.Errorf("%w: need at least one batch, got %d", ErrInvalidConfig, batches)
	}

	d := &Dataset{seed: seed, shuffle: o.shuffle}
	stream := NewStream(gen, seed)
	for k := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if b.Len() == 0 {
			return nil, fmt.Errorf("batch %d: %w", k, vmap.ErrEmptyBatch)
		}
		if k == 0 {
			d.batchSize = b.Len()
		}
		d.items = append(d.items, b.Lanes()...)
		o.log.V(1).Info("batch generated", "batch", k+1, "of", batches)
	}
	return d, nil
}

// Len is the number of trajectories.
func (d *Dataset) Len() int { return len(d.items) }

func (d *Dataset) BatchSize() int { return d.batchSize }

// Batches is the number of batches per epoch; a short final batch counts.
func (d *Dataset) Batches() int { return (len(d.items) + d.batchSize - 1) / d.batchSize }

// Trajectories returns the stored trajectories in generation order.
func (d *Dataset) Trajectories() []Trajectory {
	out := make([]Trajectory, len(d.items))
	copy(out, d.items)
	return out
}

// Epoch returns the batches of epoch e. Without shuffling every epoch is in
// generation order; with shuffling the order is a deterministic function of
// the dataset seed and e.
func (d *Dataset) Epoch(e int) []vmap.Batch[Trajectory] {
	order := make([]int, len(d.items))
	for i := range order {
		order[i] = i
	}
	if d.shuffle {
		r := rand.New(newSource(SplitSeed(^d.seed, uint64(e)), 0))
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	out := make([]vmap.Batch[Trajectory], 0, d.Batches())
	for lo := 0; lo < len(order); lo += d.batchSize {
		hi := min(lo+d.batchSize, len(order))
		lanes := make([]Trajectory, 0, hi-lo)
		for _, i := range order[lo:hi] {
			lanes = append(lanes, d.items[i])
		}
		out = append(out, vmap.Of(lanes...))
	}
	return out
}

// Package dynamo provides the immutable values the simulator operates on.
//
//   - [System]: a kinematic tree of [Body] values plus global options
//     (gravity, time step). Parents always precede children.
//   - [State]: generalized coordinates q, velocities qd and the cached
//     world transforms of every body.
//   - [Field]: a named replacement applied through [System.Replace] or
//     [State.Replace]. Structural fields (body count, parents, joint types,
//     names) are immutable; numeric fields may differ across batch lanes.
//
// Values are never mutated in place. Every edit returns a new value and
// leaves the original untouched, so systems and states can be shared
// freely between goroutines and batched with [System.Batch] and
// [State.Batch].
//
// # Example
//
//	sys, _ := dynamo.New("pendulum", bodies, dynamo.DefaultOptions())
//	heavy, _ := sys.Replace(dynamo.WithGravity(r3.Vec{Z: -20}))
//	systems, _ := sys.Batch(heavy)
package dynamo

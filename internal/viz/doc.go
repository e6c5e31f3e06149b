// Package viz renders kinematic chains in the terminal.
//
// A braille [Canvas] gives 2x4 pixels per cell; [Skeleton] turns body frames
// into line segments and a [Camera] projects them. [Model] is a Bubble Tea
// program that either simulates a system in real time or replays recorded
// frames, and [Menu] picks a preset to simulate.
//
// # Key Bindings
//
//	Space      - Pause/Resume
//	R          - Reset to the initial state
//	[ ]        - Time travel
//	Tab, Up/Dn - Select and scale damping or gravity
//	Arrows,W/S - Orbit the camera
//	T          - Cycle color themes
//	?          - Show help
package viz

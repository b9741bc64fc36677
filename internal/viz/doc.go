// Package viz renders automata in the terminal.
//
//   - [Watch]: a Bubble Tea model that follows a running simulation
//   - [Plot]: asciigraph charts of per-step statistics
//   - [Heat]: shaded text rendering of a 2D section
//
// # Key Bindings
//
//	T     - Cycle color themes
//	Q     - Leave the view
//
// # Thread Safety
//
// Frames are built on the simulation goroutine by the observer returned
// from [Frames]; the model only ever sees copies.
package viz

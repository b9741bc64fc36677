// Package automaton runs value-redistribution cellular automata on
// unbounded (or enclosed) integer lattices of dimension 1 to 4.
//
// The package provides:
//
//   - [Automaton]: the symmetric engine. It stores one hyper-octant of the
//     lattice and grows the store by one shell when activity reaches it.
//   - [Full]: a dense, non-symmetric engine used for arbitrary initial
//     configurations and as a reference for the symmetric one.
//   - [Snapshot]: an exported state that restores to an identical future
//     evolution.
//   - [Compliance]: toppling-alternation checks on a stepped automaton.
//
// # Stepping
//
// NextStep builds a complete new store from the current one and swaps it
// in only when the sweep succeeds:
//
//	a, _ := automaton.New(rules.Aether{}, 2, 1000)
//	for {
//		changed, err := a.NextStep(ctx)
//		if err != nil || !changed {
//			break
//		}
//	}
//
// # Thread Safety
//
// An Automaton is NOT thread-safe. Reads are only valid between steps.
package automaton

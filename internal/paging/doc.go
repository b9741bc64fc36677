// Package paging provides a lattice.Store that keeps memory use under a
// byte budget by spilling whole shells to disk.
//
// A Pager owns the budget and a Backing. Every store created through
// Pager.Factory gets its own generation, so the store being read and the
// store being built during a step share one budget without mixing their
// blocks:
//
//	backing, _ := paging.NewFileBacking(dir)
//	pager := paging.NewPager(backing, 64<<20, logger)
//	a, _ := automaton.New(rule, 3, 1_000_000, automaton.WithStoreFactory(pager.Factory))
//
// Closing a Store frees its resident shells and drops its spilled ones.
//
// # Thread Safety
//
// Pager and Store serialize access with the pager's mutex.
package paging

// Package stats implements the usage statistics of the stry service.
//
// Every connection accumulates its own Local counters while a transaction is
// in flight. At the end of each transaction the connection merges them into
// the process wide Aggregator and starts over at zero.
//
// The Aggregator is the only state shared between connections. Merge,
// Snapshot, Reset and Load are serialized by a single mutex that is held only
// for the in-memory update, never across network I/O.
//
// Consistency:
//
//	A Snapshot contains the global counters plus the unmerged counters of the
//	caller. In-flight work of other connections is not visible until they
//	merge, so concurrent snapshots are weakly consistent.
//
//	Reset zeroes the global counters only. Counters still held locally by
//	connections are merged into the new base at their next transaction
//	boundary.
package stats

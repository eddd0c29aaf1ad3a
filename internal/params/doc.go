// Package params holds the control parameters shared by the PID loop, the
// device pollers and every observer.
//
// The Store is the single point of truth. Each setter locks the store,
// mutates a copy of the current Snapshot, publishes the copy to every
// subscriber and releases the lock. Snapshots are plain values: a
// subscriber can hold one for as long as it likes without ever seeing it
// change.
//
// # Subscriptions
//
// Subscribe replays the latest snapshot first and then delivers every later
// snapshot in publication order. Each subscriber has its own unbounded FIFO,
// so a slow subscriber never causes another subscriber to miss a snapshot
// and never blocks a writer.
//
//	sub := store.Subscribe()
//	defer sub.Close()
//	for snap := range sub.C() {
//	    log.Info("parameters changed", "version", snap.Version)
//	}
package params

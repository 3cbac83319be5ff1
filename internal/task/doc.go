// Package task contains the asynchronous prompt processing pipeline:
// the worker pool that pulls dispatched prompts off the scheduler, the
// processor that drives each prompt through its state machine, and the
// reconciliation poller that re-enqueues pending prompts the queue lost
// track of.
package task

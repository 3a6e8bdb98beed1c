// Package coordinator serializes queries from any number of goroutines onto
// the single embedded engine connection held by the process.
//
// ARCHITECTURE:
//
// Fan-in to one executor:
// Callers submit SQL text from any goroutine. Each submission becomes a task
// appended to an unbounded FIFO queue and paired with a Future that is
// settled exactly once. One executor goroutine drains the queue, so at most
// one statement is in flight against the engine at any instant.
//
// Task Flow:
//  1. Submit stamps the task with the next sequence number and enqueues it
//  2. The executor, started on first use, pops tasks in sequence order
//  3. The lifecycle supplies the connection, creating it on first use
//  4. The statement runs; rows or a typed *Error settle the task's Future
//  5. The executor moves on regardless of outcome, then blocks on the
//     queue's signal channel once the queue is empty
//
// Connection lifecycle:
// Creation is single-flight. Every goroutine that needs the connection while
// it is being created waits for the same attempt and sees the same outcome.
// A failed attempt is forgotten, so the next submission retries.
//
// Shutdown:
// Shutdown is terminal and idempotent. Pending tasks are settled with
// CANCELLED, the in-flight task is allowed to finish (or is interrupted when
// the shutdown context expires), then the connection is closed. Any later
// submission fails fast with CLOSED.
//
// Status is an observability snapshot only. Nothing in this package, and no
// caller, should branch on it.
package coordinator

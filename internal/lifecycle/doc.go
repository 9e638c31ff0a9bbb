// Package lifecycle owns series match state: it runs the matching engine under
// an exclusive run lock, reconciles candidates with stored series and matches,
// and drives the pending/approved/rejected state machine.
//
// Reconciliation is a pure function (Reconcile) so its rules can be tested
// without a database. The Manager wraps it with the run lock, persistence, and
// logging. Human decisions are never overwritten by a run: approved and
// rejected matches keep their status, and matches marked applied are frozen.
package lifecycle

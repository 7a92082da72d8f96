// Package order contains the work order aggregate and its lifecycle.
//
// An order is created by a client in Pending, paid (Paid), taken by a gender-matched worker,
// started (InProgress) and finished (Completed). Pending, Paid and InProgress orders can be
// Canceled. Completed and Canceled are terminal.
//
// The legal edges live in a single table (IsLegal). Aggregate methods never move an order along an
// edge that the table rejects, and derived timestamps (paidAt, completedAt) are stamped only on the
// first entry into their status.
package order

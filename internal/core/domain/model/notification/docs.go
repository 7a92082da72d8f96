// Package notification holds the durable record of a message sent to a user about an order or the system,
// and the envelope it travels in over live connections.
//
// A record is created Pending before delivery is attempted and moves through
//
//	Pending ──> Sent ──> Read
//	   │
//	   └──────> Failed
//
// Resend puts a record of any status back to Pending under the same ID.
package notification

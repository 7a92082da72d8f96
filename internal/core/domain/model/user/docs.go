// Package user models the verified identity of an actor: client, worker or admin.
// Identities come from the authentication collaborator and are never mutated by the order workflow.
package user

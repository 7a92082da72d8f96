// Package services provides domain services that span the order and user models:
//
//   - AuthorizationPolicy: pure predicates deciding what an actor may do with an order
//   - OrderStateMachine: applies status changes, worker assignment and payment outcomes to orders
//
// Neither service touches storage. Callers load the order, consult the policy, run the state machine
// and persist the result in one unit of work.
package services

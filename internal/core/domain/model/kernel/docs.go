// Package kernel holds the value objects shared by every aggregate of the work order domain:
// identifiers (UUID) and the gender attribute used to match clients with workers.
package kernel

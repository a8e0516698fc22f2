// Package service contains the business logic.
//
// It sits between the operations and the repository layer: operations
// hand it validated input, and it calls repository methods or external
// dependencies to do the work.
package service

// Package handler is the first layer. The first entry point
// for business logic after the dispatcher.
//
// It declares the operations served by the dispatcher: their input and
// output schemas and the calls into the service and repository layers.
package handler

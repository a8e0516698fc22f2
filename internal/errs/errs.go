// Package errs defines the failure taxonomy of the dispatch layer.
//
// Every checkpoint of a request (method check, body parse, route lookup,
// input validation, execution, output validation) reports its failure as an
// *HTTPError, which the response envelope renders as
//
//	{ "error": "...", "devMessage": "...", "data": { ... } }
//
// Operations signal expected failures with *ApplicationError and
// *ValidationError. Anything else they return is treated as unexpected.
package errs

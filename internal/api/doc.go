// Package api implements the HTTP compile service.
//
// This package provides:
//   - POST /api/v1/compile to turn a device description into a bus object
//   - GET /api/v1/runs for the compile history
//   - GET /api/v1/health for liveness checks
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// Validation failures are answered with 422 and the offending field paths,
// so an editor can highlight them:
//
//	{"status":422,"code":"validation_error","kind":"invalid_input",
//	 "message":"...","fields":["points[3].address"]}
//
// The server runs without a history store; the runs endpoints then answer
// 503.
package api

// Package cli implements the mockapp command line.
//
// Commands:
//
//	serve     run a mock server in the foreground from routes files
//	probe     wait until an address accepts TCP connections
//	validate  check routes files against the schema
//	version   print build information
//
// "mockapp serve" is also the child entry point of controller.Subprocess: it
// writes its bound address to --ready-file and exits with status 3 when the
// listener cannot be bound.
package cli

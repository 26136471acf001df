// Package cmd implements the command-line interface of stry. It provides a
// command to run the compression server and a client command group to talk
// to a running server.
//
// The package is organized into several subpackages:
//
//   - serve: Command for starting and configuring the stry server
//   - client: Commands for the four requests of the protocol and a performance test
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the prefix STRY_
// (e.g. --max-payload becomes STRY_MAX_PAYLOAD). Variables in .env and
// .env.local in the working directory are loaded as well.
//
// See stry -help for a list of all commands.
package cmd

// Package command provides CLI command definitions for cachelet-cli.
//
// It uses urfave/cli/v2 for command parsing. Each subcommand opens one
// connection to the server, runs its command, and prints the reply.
package command

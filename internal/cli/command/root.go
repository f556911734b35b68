package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tvarn/cachelet-go/internal/cli/connection"
	"github.com/tvarn/cachelet-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "cachelet-cli",
		Usage:   "Cachelet command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Cachelet server address",
			EnvVars: []string{"CACHELET_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Request timeout",
			Value:   10 * time.Second,
		},
	}
}

// newClient builds a client from the global flags.
func newClient(c *cli.Context) *connection.Client {
	return connection.NewClient(
		c.String("server"),
		connection.WithTimeout(c.Duration("timeout")),
	)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

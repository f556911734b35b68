package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/tvarn/cachelet-go/internal/resp"
)

// errServer marks an error frame returned by the server. The message is
// printed as-is.
var errServer = errors.New("server error")

// PingCommand returns the ping subcommand.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server is reachable",
		Action: func(c *cli.Context) error {
			return runCommand(c, "PING")
		},
	}
}

// GetCommand returns the get subcommand.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: cachelet-cli get KEY")
			}
			return runCommand(c, "GET", c.Args().Get(0))
		},
	}
}

// SetCommand returns the set subcommand.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key to a value",
		ArgsUsage: "KEY VALUE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "Expire the key after this many seconds",
			},
			&cli.Int64Flag{
				Name:  "px",
				Usage: "Expire the key after this many milliseconds",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("usage: cachelet-cli set KEY VALUE")
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			switch {
			case c.Int64("ex") > 0 && c.Int64("px") > 0:
				return errors.New("--ex and --px are mutually exclusive")
			case c.Int64("ex") > 0:
				args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
			case c.Int64("px") > 0:
				args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
			}
			return runCommand(c, args...)
		},
	}
}

// DelCommand returns the del subcommand.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: cachelet-cli del KEY")
			}
			return runCommand(c, "DEL", c.Args().Get(0))
		},
	}
}

// runCommand sends one command and prints the reply to the app writer.
func runCommand(c *cli.Context, args ...string) error {
	client := newClient(c)
	defer client.Close()

	reply, err := client.Do(c.Context, args...)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return printReply(c.App.Writer, reply)
}

// printReply renders a reply frame for human consumption.
func printReply(w io.Writer, f resp.Frame) error {
	switch f.Kind {
	case resp.KindError:
		return fmt.Errorf("%w: %s", errServer, f.Str)
	case resp.KindSimple:
		_, err := fmt.Fprintln(w, f.Str)
		return err
	case resp.KindInteger:
		_, err := fmt.Fprintf(w, "(integer) %d\n", f.Int)
		return err
	case resp.KindBulk:
		_, err := fmt.Fprintf(w, "%s\n", f.Bulk)
		return err
	case resp.KindNull:
		_, err := fmt.Fprintln(w, "(nil)")
		return err
	default:
		_, err := fmt.Fprintln(w, f.String())
		return err
	}
}

// Command client issues a single RPC against a Chord node and reports
// the result: `client <host> <port> <verb> [args…]`. Exit code is 0 on
// success, non-zero on any RPC or usage failure.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"chordring/internal/logging"
	"chordring/internal/transport"
)

var timeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "client <host> <port> <verb> [args...]",
	Short: "Issue a single RPC against a Chord node",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runClient,
}

func init() {
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "RPC timeout")
}

func runClient(cmd *cobra.Command, args []string) error {
	host, portStr, verb := args[0], args[1], args[2]
	rest := args[3:]
	addr := net.JoinHostPort(host, portStr)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c := transport.NewClient(logging.Nop())

	switch verb {
	case "create":
		if err := c.Create(ctx, addr); err != nil {
			return err
		}
		fmt.Println("ok")

	case "join":
		if len(rest) != 2 {
			return fmt.Errorf("join requires <host> <port>")
		}
		known := net.JoinHostPort(rest[0], rest[1])
		if err := c.Join(ctx, addr, known); err != nil {
			return err
		}
		fmt.Println("ok")

	case "find_successor":
		if len(rest) != 1 {
			return fmt.Errorf("find_successor requires <id>")
		}
		id, err := strconv.ParseUint(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", rest[0], err)
		}
		succ, hops, err := c.FindSuccessor(ctx, addr, id)
		if err != nil {
			return err
		}
		fmt.Printf("successor=%s id=%d hops=%d\n", succ.Address, succ.ID, hops)

	case "put":
		if len(rest) != 2 {
			return fmt.Errorf("put requires <key> <value>")
		}
		node, hops, err := c.Put(ctx, addr, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Printf("stored on=%s hops=%d\n", node.Address, hops)

	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("get requires <key>")
		}
		node, hops, value, found, err := c.Get(ctx, addr, rest[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("not found (owner=%s hops=%d)\n", node.Address, hops)
			return fmt.Errorf("key %q not found", rest[0])
		}
		fmt.Printf("value=%q owner=%s hops=%d\n", value, node.Address, hops)

	case "shutdown":
		if err := c.Shutdown(ctx, addr); err != nil {
			return err
		}
		fmt.Println("ok")

	case "leave":
		if err := c.Leave(ctx, addr); err != nil {
			return err
		}
		fmt.Println("ok")

	default:
		return fmt.Errorf("unknown verb %q", verb)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

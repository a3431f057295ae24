// Command ninecp is a minimal 9P client CLI (spec.md §6's reference
// client, d9c): it attaches to a server and performs one of a handful of
// operations against a path, exiting with the documented status codes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go9p.dev/ninep"
	"go9p.dev/ninep/client"
)

// Exit codes mirror spec.md §6's d9c: 0 success, 1 usage error, 2 remote
// error, 3 connection failure.
const (
	exitOK         = 0
	exitUsage      = 1
	exitRemote     = 2
	exitConnection = 3
)

func main() {
	cmd, box := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ninecp:", err)
		os.Exit(box.code)
	}
	os.Exit(exitOK)
}

// exitCodeBox carries the command's actual exit code out through
// cobra.Command.Execute, which only ever returns an error or nil: each
// RunE sets box.code before returning its error.
type exitCodeBox struct{ code int }

func newRootCmd() (*cobra.Command, *exitCodeBox) {
	var (
		addr    string
		network string
		uname   string
		aname   string
	)

	box := &exitCodeBox{code: exitUsage}

	cmd := &cobra.Command{
		Use:          "ninecp",
		Short:        "talk to a 9P2000/9P2000.u server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&network, "network", "tcp", "dial network")
	cmd.PersistentFlags().StringVar(&addr, "addr", "localhost:5640", "server address")
	cmd.PersistentFlags().StringVar(&uname, "uname", "none", "attach user name")
	cmd.PersistentFlags().StringVar(&aname, "aname", "", "attach tree name")

	dial := func(ctx context.Context) (*client.Conn, *client.Fid, error) {
		c, err := client.Dial(ctx, network, addr)
		if err != nil {
			box.code = exitConnection
			return nil, nil, err
		}
		root, err := c.Attach(uname, aname)
		if err != nil {
			box.code = exitRemote
			c.Close()
			return nil, nil, err
		}
		return c, root, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cat <path>",
		Short: "print a remote file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, root, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			defer root.Close()

			rc, err := client.OpenRead(root, args[0])
			if err != nil {
				box.code = exitRemote
				return err
			}
			defer rc.Close()
			_, err = io.Copy(os.Stdout, rc)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ls <path>",
		Short: "list a remote directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, root, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			defer root.Close()

			dir, err := root.Walk(splitNonEmpty(args[0])...)
			if err != nil {
				box.code = exitRemote
				return err
			}
			defer dir.Close()
			if err := dir.Open(ninep.OREAD); err != nil {
				box.code = exitRemote
				return err
			}
			entries, err := dir.Dirreadall()
			if err != nil {
				box.code = exitRemote
				return err
			}
			for _, e := range entries {
				fmt.Fprintln(os.Stdout, e.String())
			}
			return nil
		},
	})

	return cmd, box
}

func splitNonEmpty(p string) []string {
	var out []string
	cur := ""
	for _, c := range p {
		if c == '/' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(c)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

package main

import (
	"context"
	"net"

	"golang.org/x/sys/unix"

	"go9p.dev/ninep/srv"
	"go9p.dev/ninep/vfs"
)

// listenAndServe opens cfg.Listen.Network/Addr and serves s on it. For a
// unix domain socket it also widens the socket file's permissions with
// golang.org/x/sys/unix.Chmod so that clients running as a different user
// can connect, since net.Listen("unix", ...) otherwise creates the file
// mode-restricted to the server's own umask.
func listenAndServe(ctx context.Context, s *srv.Server[*vfs.Handle], network, addr string) error {
	if network != "unix" {
		return s.ListenAndServe(ctx, network, addr)
	}

	l, err := net.Listen(network, addr)
	if err != nil {
		return err
	}
	if err := unix.Chmod(addr, 0666); err != nil {
		l.Close()
		return err
	}
	return s.ServeNet(ctx, l)
}

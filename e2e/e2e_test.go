// Package e2e wires client, srv, and vfs together over an in-process pipe,
// the way the teacher's server_test.go exercises its static fsys, but
// against a mutable tree and the write side of the protocol.
package e2e

import (
	"context"
	"io"
	"net"
	"testing"

	qt "github.com/frankban/quicktest"

	"go9p.dev/ninep"
	"go9p.dev/ninep/client"
	"go9p.dev/ninep/srv"
	"go9p.dev/ninep/vfs"
)

func newServedConn(t *testing.T) (*client.Conn, func()) {
	t.Helper()
	c := qt.New(t)

	tree := vfs.NewTree("root", "root")
	_, err := tree.MkFile(tree.Root, "greeting", "root", "root", 0644)
	c.Assert(err, qt.IsNil)

	s := &srv.Server[*vfs.Handle]{Fsys: vfs.New(tree)}

	c0, c1 := net.Pipe()
	go func() {
		s.ServeConn(context.Background(), c0)
		c0.Close()
	}()

	conn, err := client.NewConn(c1)
	c.Assert(err, qt.IsNil)
	return conn, func() { conn.Close() }
}

func TestAttachAndStatRoot(t *testing.T) {
	c := qt.New(t)
	conn, closeFn := newServedConn(t)
	defer closeFn()

	root, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root.Close()

	// Tattach's qid always carries type 0 (spec.md §4.7 Tattach), unlike
	// the directory-tagged qid Tstat reports for the same node.
	c.Assert(root.Qid().Type, qt.Equals, ninep.QidType(0))

	dir, err := root.Stat()
	c.Assert(err, qt.IsNil)
	c.Assert(dir.Qid.IsDir(), qt.IsTrue)
}

func TestWriteThenReadBack(t *testing.T) {
	c := qt.New(t)
	conn, closeFn := newServedConn(t)
	defer closeFn()

	root, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root.Close()

	w, err := client.OpenCreate(root, "hello.txt", 0644, ninep.OWRITE)
	c.Assert(err, qt.IsNil)
	_, err = io.WriteString(w, "hello, 9p")
	c.Assert(err, qt.IsNil)
	c.Assert(w.Close(), qt.IsNil)

	root2, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root2.Close()

	r, err := client.OpenRead(root2, "hello.txt")
	c.Assert(err, qt.IsNil)
	data, err := io.ReadAll(r)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "hello, 9p")
}

func TestDirreadall(t *testing.T) {
	c := qt.New(t)
	conn, closeFn := newServedConn(t)
	defer closeFn()

	root, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root.Close()

	c.Assert(root.Open(ninep.OREAD), qt.IsNil)
	entries, err := root.Dirreadall()
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries) >= 1, qt.IsTrue)
}

func TestRemove(t *testing.T) {
	c := qt.New(t)
	conn, closeFn := newServedConn(t)
	defer closeFn()

	root, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root.Close()

	f, err := root.Walk("greeting")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Remove(), qt.IsNil)

	root2, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root2.Close()
	_, err = root2.Walk("greeting")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestWalkNonexistent(t *testing.T) {
	c := qt.New(t)
	conn, closeFn := newServedConn(t)
	defer closeFn()

	root, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root.Close()

	_, err = root.Walk("does-not-exist")
	c.Assert(err, qt.Not(qt.IsNil))
}

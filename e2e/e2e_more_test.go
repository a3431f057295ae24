package e2e

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"go9p.dev/ninep"
	"go9p.dev/ninep/srv"
	"go9p.dev/ninep/vfs"
)

// TestDirreadallPaginatesAcrossMultipleTread creates enough directory
// entries that a single DefaultIounit-sized Tread can't hold them all,
// forcing Dirreadall to issue several Tread calls at advancing offsets.
func TestDirreadallPaginatesAcrossMultipleTread(t *testing.T) {
	c := qt.New(t)
	conn, closeFn := newServedConn(t)
	defer closeFn()

	root, err := conn.Attach("alice", "")
	c.Assert(err, qt.IsNil)
	defer root.Close()

	dir, err := root.Walk()
	c.Assert(err, qt.IsNil)
	c.Assert(dir.Create("many", ninep.DMDIR|0755, ninep.OREAD, ""), qt.IsNil)

	const n = 200
	for i := 0; i < n; i++ {
		sub, err := root.Walk("many")
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Create(fmt.Sprintf("f%03d", i), 0644, ninep.OWRITE, ""), qt.IsNil)
		c.Assert(sub.Close(), qt.IsNil)
	}

	d, err := root.Walk("many")
	c.Assert(err, qt.IsNil)
	defer d.Close()
	c.Assert(d.Open(ninep.OREAD), qt.IsNil)

	entries, err := d.Dirreadall()
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries), qt.Equals, n+2) // plus the synthetic "." and ".." entries
	c.Assert(entries[0].Name, qt.Equals, ".")
	c.Assert(entries[1].Name, qt.Equals, "..")
}

// TestFlushRepliesWhileReadBlocks exercises Tflush end-to-end (spec.md P3):
// a Tread against a fid whose OnRead hook blocks forever is flushed by tag,
// and the server must reply Rflush promptly rather than wait for the read
// to finish, since handleFlush only cancels the handler's context and
// never forcibly drops the connection.
func TestFlushRepliesWhileReadBlocks(t *testing.T) {
	c := qt.New(t)

	tree := vfs.NewTree("root", "root")
	block := make(chan struct{})
	f, err := tree.MkFile(tree.Root, "slow", "root", "root", 0644)
	c.Assert(err, qt.IsNil)
	f.OnRead = func(n *vfs.Node, offset uint64, p []byte) (int, error) {
		<-block
		return 0, ninep.ErrNotImplemented
	}

	s := &srv.Server[*vfs.Handle]{Fsys: vfs.New(tree)}
	c0, c1 := net.Pipe()
	go func() {
		s.ServeConn(context.Background(), c0)
		c0.Close()
	}()
	defer c1.Close()
	defer close(block)

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Tversion, Tag: ninep.NoTag, Msize: ninep.MaxMsize, Version: ninep.VersionStringU,
	}, true), qt.IsNil)
	_, err = ninep.ReadFcall(c1, true)
	c.Assert(err, qt.IsNil)

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Tattach, Tag: 1, Fid: 1, Afid: ninep.NoFid, Uname: "alice",
	}, false), qt.IsNil)
	_, err = ninep.ReadFcall(c1, false)
	c.Assert(err, qt.IsNil)

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Twalk, Tag: 2, Fid: 1, Newfid: 2, Wname: []string{"slow"},
	}, false), qt.IsNil)
	_, err = ninep.ReadFcall(c1, false)
	c.Assert(err, qt.IsNil)

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Topen, Tag: 3, Fid: 2, Mode: ninep.OREAD,
	}, false), qt.IsNil)
	_, err = ninep.ReadFcall(c1, false)
	c.Assert(err, qt.IsNil)

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Tread, Tag: 4, Fid: 2, Offset: 0, Count: 64,
	}, false), qt.IsNil)

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Tflush, Tag: 5, Oldtag: 4,
	}, false), qt.IsNil)

	replyCh := make(chan *ninep.Fcall, 1)
	go func() {
		fc, err := ninep.ReadFcall(c1, false)
		c.Assert(err, qt.IsNil)
		replyCh <- fc
	}()

	select {
	case fc := <-replyCh:
		c.Assert(fc.Type, qt.Equals, ninep.Rflush)
		c.Assert(fc.Tag, qt.Equals, uint16(5))
	case <-time.After(2 * time.Second):
		t.Fatal("Rflush did not arrive while the flushed Tread was still blocked")
	}
}

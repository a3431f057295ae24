package srv

import (
	"context"
	"net"
	"testing"

	qt "github.com/frankban/quicktest"

	"go9p.dev/ninep"
)

type noopFsys struct {
	ErrorFsys[int]
}

func TestErrorFsysDefaultsToNotImplemented(t *testing.T) {
	c := qt.New(t)
	var fs Fsys[int] = noopFsys{}

	_, _, err := fs.Auth(context.Background(), "u", "a")
	c.Assert(err, qt.Equals, ninep.ErrNotImplemented)

	_, _, err = fs.Open(context.Background(), 0, ninep.OREAD)
	c.Assert(err, qt.Equals, ninep.ErrNotImplemented)

	_, err = fs.Stat(context.Background(), 0)
	c.Assert(err, qt.Equals, ninep.ErrNotImplemented)
}

func TestRerrorWrapsRemoteError(t *testing.T) {
	c := qt.New(t)
	fc := rerror(&ninep.RemoteError{Ename: "boom", Errno: 5})
	c.Assert(fc.Type, qt.Equals, ninep.Rerror)
	c.Assert(fc.Ename, qt.Equals, "boom")
	c.Assert(fc.Errno, qt.Equals, uint32(5))
}

func TestRerrorPlainError(t *testing.T) {
	c := qt.New(t)
	fc := rerror(ninep.ErrNotFound)
	c.Assert(fc.Ename, qt.Equals, ninep.ErrNotFound.Error())
	c.Assert(fc.Errno, qt.Equals, ninep.EDontCare)
}

func TestServeConnRejectsUnknownVersion(t *testing.T) {
	c := qt.New(t)
	s := &Server[int]{Fsys: noopFsys{}}

	c0, c1 := net.Pipe()
	defer c1.Close()
	go func() {
		s.ServeConn(context.Background(), c0)
		c0.Close()
	}()

	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Tversion, Tag: ninep.NoTag, Msize: ninep.MaxMsize, Version: "bogus",
	}, false), qt.IsNil)

	reply, err := ninep.ReadFcall(c1, false)
	c.Assert(err, qt.IsNil)
	c.Assert(reply.Type, qt.Equals, ninep.Rversion)
	c.Assert(reply.Version, qt.Equals, "unknown")

	// The connection is abandoned after an unknown version: the server end
	// is closed, so a well-formed Tattach cannot even be delivered and no
	// further reply arrives.
	c.Assert(ninep.WriteFcall(c1, &ninep.Fcall{
		Type: ninep.Tattach, Tag: 1, Fid: 1, Afid: ninep.NoFid, Uname: "u",
	}, false), qt.Not(qt.IsNil))
	_, err = ninep.ReadFcall(c1, false)
	c.Assert(err, qt.Not(qt.IsNil))
}

package ninep

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDirRoundTripPlain(t *testing.T) {
	c := qt.New(t)
	d := Dir{
		Qid:    Qid{Type: QTFILE, Path: 1, Version: 2},
		Mode:   DMREAD | DMWRITE,
		Atime:  100,
		Mtime:  200,
		Length: 3,
		Name:   "foo",
		Uid:    "alice",
		Gid:    "staff",
		Muid:   "alice",
	}
	got, err := UnmarshalDir(d.Bytes(false), false)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, d)
}

func TestDirRoundTripDotU(t *testing.T) {
	c := qt.New(t)
	d := Dir{
		Qid:   Qid{Type: QTFILE, Path: 9},
		Mode:  DMREAD,
		Name:  "bar",
		Uid:   "bob",
		Gid:   "staff",
		Muid:  "bob",
		Ext:   "",
		NUid:  501,
		NGid:  20,
		NMuid: 501,
	}
	got, err := UnmarshalDir(d.Bytes(true), true)
	c.Assert(err, qt.IsNil)
	c.Assert(got.NUid, qt.Equals, uint32(501))
	c.Assert(got.NGid, qt.Equals, uint32(20))
	c.Assert(got.Name, qt.Equals, "bar")
}

func TestDirBytesOrIDFallsBackToNameLookup(t *testing.T) {
	c := qt.New(t)
	Users.Put("carol", 777)
	d := Dir{Qid: Qid{Path: 1}, Name: "x", Uid: "carol", Gid: "g", Muid: "carol"}
	got, err := UnmarshalDir(d.Bytes(true), true)
	c.Assert(err, qt.IsNil)
	c.Assert(got.NUid, qt.Equals, uint32(777))
}

func TestUnmarshalDirShortBuffer(t *testing.T) {
	c := qt.New(t)
	_, err := UnmarshalDir([]byte{0x01}, false)
	c.Assert(err, qt.ErrorMatches, "ninep: short stat buffer")
}

func TestPermString(t *testing.T) {
	c := qt.New(t)
	c.Assert(Perm(0755).String(), qt.Equals, "-755")
	c.Assert((DMDIR | Perm(0755)).String(), qt.Equals, "d755")
}

func TestDeviceExtRoundTrip(t *testing.T) {
	c := qt.New(t)
	s := deviceExt(true, 8, 1)
	c.Assert(s, qt.Equals, "b 8 1")
	block, major, minor, err := parseDeviceExt(s)
	c.Assert(err, qt.IsNil)
	c.Assert(block, qt.IsTrue)
	c.Assert(major, qt.Equals, uint32(8))
	c.Assert(minor, qt.Equals, uint32(1))
}

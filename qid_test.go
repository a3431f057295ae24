package ninep

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"go9p.dev/ninep/internal/wire"
)

func TestQidRoundTrip(t *testing.T) {
	c := qt.New(t)
	q := Qid{Type: QTDIR, Version: 7, Path: 42}

	e := wire.NewEncoder(qidSize)
	q.marshal(e)
	c.Assert(e.Len(), qt.Equals, qidSize)

	d := wire.NewDecoder(e.Bytes())
	got := unmarshalQid(d)
	c.Assert(d.Err(), qt.IsNil)
	c.Assert(got, qt.Equals, q)
}

func TestQidString(t *testing.T) {
	c := qt.New(t)
	c.Assert(Qid{Type: QTDIR, Path: 3}.String(), qt.Equals, "d.3")
	c.Assert(Qid{Type: QTFILE, Path: 0}.String(), qt.Equals, "-.0")
}

func TestQidIsDir(t *testing.T) {
	c := qt.New(t)
	c.Assert(Qid{Type: QTDIR}.IsDir(), qt.IsTrue)
	c.Assert(Qid{Type: QTFILE}.IsDir(), qt.IsFalse)
}

package ninep

import "go9p.dev/ninep/internal/wire"

// Qid is the 13-byte value identifying a server-side file across its
// lifetime (spec.md §3). Two distinct files on the same server must never
// share the same Path.
type Qid struct {
	Type    QidType
	Version uint32
	Path    uint64
}

// IsDir reports whether the qid names a directory.
func (q Qid) IsDir() bool {
	return q.Type&QTDIR != 0
}

const qidSize = 1 + 4 + 8

func (q Qid) marshal(e *wire.Encoder) {
	e.Put8(uint8(q.Type))
	e.Put32(q.Version)
	e.Put64(q.Path)
}

func unmarshalQid(d *wire.Decoder) Qid {
	return Qid{
		Type:    QidType(d.Get8()),
		Version: d.Get32(),
		Path:    d.Get64(),
	}
}

func (q Qid) String() string {
	kind := byte('-')
	switch {
	case q.Type&QTDIR != 0:
		kind = 'd'
	case q.Type&QTLINK != 0:
		kind = 'L'
	case q.Type&QTAUTH != 0:
		kind = 'A'
	}
	return string(kind) + "." + itoa64(q.Path)
}

func itoa64(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

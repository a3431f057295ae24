package ninep

// Package ninep implements the 9P2000 and 9P2000.u wire protocol: message
// framing, the stat (Dir) record codec, and the qid/tag/fid value types
// shared by the client and srv packages.

// MsgType identifies the kind of a 9P message. T-messages (requests) use
// even codes; the matching R-message (reply) is always T+1.
type MsgType uint8

const (
	Tversion MsgType = 100
	Rversion MsgType = 101
	Tauth    MsgType = 102
	Rauth    MsgType = 103
	Tattach  MsgType = 104
	Rattach  MsgType = 105
	Rerror   MsgType = 107
	Tflush   MsgType = 108
	Rflush   MsgType = 109
	Twalk    MsgType = 110
	Rwalk    MsgType = 111
	Topen    MsgType = 112
	Ropen    MsgType = 113
	Tcreate  MsgType = 114
	Rcreate  MsgType = 115
	Tread    MsgType = 116
	Rread    MsgType = 117
	Twrite   MsgType = 118
	Rwrite   MsgType = 119
	Tclunk   MsgType = 120
	Rclunk   MsgType = 121
	Tremove  MsgType = 122
	Rremove  MsgType = 123
	Tstat    MsgType = 124
	Rstat    MsgType = 125
	Twstat   MsgType = 126
	Rwstat   MsgType = 127
)

func (t MsgType) String() string {
	if s, ok := msgTypeNames[t]; ok {
		return s
	}
	return "Tunknown"
}

// isReply reports whether t is an R-message, per spec.md's "odd numeric
// code" rule for the framer's stale-reply check.
func (t MsgType) isReply() bool {
	return t%2 == 1
}

var msgTypeNames = map[MsgType]string{
	Tversion: "Tversion", Rversion: "Rversion",
	Tauth: "Tauth", Rauth: "Rauth",
	Tattach: "Tattach", Rattach: "Rattach",
	Rerror: "Rerror",
	Tflush: "Tflush", Rflush: "Rflush",
	Twalk: "Twalk", Rwalk: "Rwalk",
	Topen: "Topen", Ropen: "Ropen",
	Tcreate: "Tcreate", Rcreate: "Rcreate",
	Tread: "Tread", Rread: "Rread",
	Twrite: "Twrite", Rwrite: "Rwrite",
	Tclunk: "Tclunk", Rclunk: "Rclunk",
	Tremove: "Tremove", Rremove: "Rremove",
	Tstat: "Tstat", Rstat: "Rstat",
	Twstat: "Twstat", Rwstat: "Rwstat",
}

// Version identifies the protocol dialect negotiated on a connection.
type Version int

const (
	Uninitialised Version = iota
	V9P2000
	V9P2000U
)

func (v Version) String() string {
	switch v {
	case V9P2000:
		return VersionString
	case V9P2000U:
		return VersionStringU
	default:
		return "uninitialised"
	}
}

const (
	VersionString  = "9P2000"
	VersionStringU = "9P2000.u"
)

// NoTag is the sentinel tag used for the version handshake.
const NoTag uint16 = 0xFFFF

// NoFid represents "no auth fid" on Tattach/Tauth.
const NoFid uint32 = 0xFFFFFFFF

// RootFid is fid 1. The client's fid pool starts at 2, so it never hands
// out RootFid; client.Conn.Attach takes its root fid from that pool like
// any other fid and does not use RootFid.
const RootFid uint32 = 1

// Message size bounds for the shipped configuration (spec.md §6).
const (
	MinMsize uint32 = 0x2000
	MaxMsize uint32 = 0x2000
)

// DefaultIounit is the iounit value servers in this package advertise on
// Ropen/Rcreate.
const DefaultIounit uint32 = 0x1000

// QidType is the bitfield carried in Qid.Type (spec.md §6).
type QidType uint8

const (
	QTDIR    QidType = 0x80
	QTAPPEND QidType = 0x40
	QTEXCL   QidType = 0x20
	QTMOUNT  QidType = 0x10
	QTAUTH   QidType = 0x08
	QTTMP    QidType = 0x04
	QTLINK   QidType = 0x02
	QTFILE   QidType = 0x00
)

// Perm is the 32-bit mode/permission bitfield (spec.md §6).
type Perm uint32

const (
	DMDIR       Perm = 0x80000000
	DMAPPEND    Perm = 0x40000000
	DMEXCL      Perm = 0x20000000
	DMMOUNT     Perm = 0x10000000
	DMAUTH      Perm = 0x08000000
	DMTMP       Perm = 0x04000000
	DMSYMLINK   Perm = 0x02000000
	DMDEVICE    Perm = 0x00800000
	DMNAMEDPIPE Perm = 0x00200000
	DMSOCKET    Perm = 0x00100000
	DMSETUID    Perm = 0x00080000
	DMSETGID    Perm = 0x00040000

	DMREAD  Perm = 0x4
	DMWRITE Perm = 0x2
	DMEXEC  Perm = 0x1

	DMPERM Perm = 0x1FF
)

// Open mode flags for Topen/Tcreate (spec.md §6).
const (
	OREAD      uint8 = 0x00
	OWRITE     uint8 = 0x01
	OREADWRITE uint8 = 0x02
	OEXEC      uint8 = 0x03
	OTRUNC     uint8 = 0x10
	ORCLOSE    uint8 = 0x40
)

// EDontCare is the "don't care" errno value attached to .u Rerror replies
// when no more specific error code is available.
const EDontCare uint32 = 0

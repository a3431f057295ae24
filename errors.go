package ninep

import "errors"

// Sentinel errors returned by the srv and vfs packages (spec.md §7, §9).
var (
	ErrNotFound         = errors.New("no such file or directory")
	ErrPermission       = errors.New("permission denied")
	ErrNotDirectory     = errors.New("cannot create nodes under anything but a directory")
	ErrNotImplemented   = errors.New("function not implemented or malformed message")
	ErrAlreadyExists    = errors.New("already exists")
	ErrVersionMismatch  = errors.New("unknown version")
	ErrMalformedMessage = errors.New("malformed message")
)

// RemoteError is a 9P Rerror delivered to a client, carrying the .u errno
// (EDontCare when the peer did not supply a more specific value).
type RemoteError struct {
	Ename string
	Errno uint32
}

func (e *RemoteError) Error() string {
	return e.Ename
}

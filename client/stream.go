package client

import (
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"go9p.dev/ninep"
	"go9p.dev/ninep/internal/xmath"
)

// OpenRead walks from root to p and opens it for reading, returning an
// io.ReadCloser that streams Tread replies and auto-clunks on EOF or Close
// (spec.md §4.5's open_read stream helper, rendered as straight-line
// blocking code rather than a callback chain: Go's goroutine-per-call model
// already gives each caller its own continuation).
func OpenRead(root *Fid, p string) (io.ReadCloser, error) {
	f, err := walkPath(root, p)
	if err != nil {
		return nil, err
	}
	if err := f.Open(ninep.OREAD); err != nil {
		f.Close()
		return nil, err
	}
	return &streamReader{fid: f}, nil
}

// OpenWrite walks from root to p and opens it for writing (truncating any
// existing content), returning an io.WriteCloser (spec.md §4.5 open_write).
func OpenWrite(root *Fid, p string) (io.WriteCloser, error) {
	f, err := walkPath(root, p)
	if err != nil {
		return nil, err
	}
	if err := f.Open(ninep.OWRITE | ninep.OTRUNC); err != nil {
		f.Close()
		return nil, err
	}
	return &streamWriter{fid: f}, nil
}

// OpenCreate walks from root to the directory containing p, creates the
// final component there, and returns an io.WriteCloser positioned at its
// start (spec.md §4.5 open_create).
func OpenCreate(root *Fid, p string, perm ninep.Perm, mode uint8) (io.WriteCloser, error) {
	dir, name := path.Split(strings.Trim(p, "/"))
	f, err := walkPath(root, dir)
	if err != nil {
		return nil, err
	}
	if err := f.Create(name, perm, mode, ""); err != nil {
		f.Close()
		return nil, err
	}
	return &streamWriter{fid: f}, nil
}

// walkPath walks the "/"-separated components of p from root, after
// trimming leading and trailing slashes; an empty p clones root.
func walkPath(root *Fid, p string) (*Fid, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return root.Walk()
	}
	return root.Walk(strings.Split(p, "/")...)
}

// streamReader implements the read side of the stream helpers: repeated
// Tread at an advancing offset until a zero-length reply signals EOF
// (spec.md §4.7 Tread semantics), clunking the fid at that point.
type streamReader struct {
	fid    *Fid
	offset uint64
	eof    bool
}

func (s *streamReader) Read(p []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}
	n := xmath.Min(uint32(len(p)), ninep.DefaultIounit)
	data, err := s.fid.readAt(s.offset, n)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		s.eof = true
		s.fid.Close()
		return 0, io.EOF
	}
	copy(p, data)
	s.offset += uint64(len(data))
	return len(data), nil
}

func (s *streamReader) Close() error {
	if s.eof {
		return nil
	}
	s.eof = true
	return s.fid.Close()
}

// streamWriter implements the write side: each Write issues Twrites of at
// most DefaultIounit bytes until all of p is written, advancing the fid's
// offset by each server-reported count, matching spec.md §4.7 Twrite's
// "server may accept fewer bytes than offered".
type streamWriter struct {
	fid    *Fid
	offset uint64
	closed bool
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("client: write to closed stream")
	}
	total := 0
	for len(p) > 0 {
		chunk := p[:xmath.Min(uint32(len(p)), ninep.DefaultIounit)]
		n, err := s.fid.writeAt(s.offset, chunk)
		if n > 0 {
			s.offset += uint64(n)
			total += int(n)
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, errors.New("client: write made no progress")
		}
		p = p[n:]
	}
	return total, nil
}

func (s *streamWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.fid.Close()
}

package vfs

import (
	"context"
	"strings"

	"go9p.dev/ninep"
	"go9p.dev/ninep/srv"
)

// Handle is the per-fid state the generic dispatcher carries for this
// filesystem: which node the fid denotes, and which user attached it -
// kept separate from Node itself since many fids (and many users) can
// reference the same node concurrently.
type Handle struct {
	node  *Node
	uname string
}

// Fsys adapts a Tree to srv.Fsys[*Handle]. It embeds ErrorFsys so Auth -
// this tree performs no authentication - defaults to ErrNotImplemented,
// matching spec.md §4.5's "Auth step is optional" note.
type Fsys struct {
	srv.ErrorFsys[*Handle]
	Tree *Tree
}

var _ srv.Fsys[*Handle] = (*Fsys)(nil)

func New(tree *Tree) *Fsys {
	return &Fsys{Tree: tree}
}

// Attach resolves aname (a "/"-separated path, possibly empty) from the
// tree root and binds uname as the fid's owning user for future Create
// calls (spec.md §4.5 step 1 "Attaching"). The reply carries a type-0 qid
// regardless of the attached node's real kind (spec.md §4.7 Tattach, S2),
// not the node's own directory-tagged qid.
func (fs *Fsys) Attach(ctx context.Context, afid *Handle, hasAfid bool, uname, aname string) (*Handle, ninep.Qid, error) {
	node := fs.Tree.Root
	for _, part := range splitPath(aname) {
		child, ok := node.lookupChild(part)
		if !ok || child.kind != KindDir {
			return nil, ninep.Qid{}, ninep.ErrNotFound
		}
		node = child
	}
	qid := node.Qid()
	qid.Type = 0
	return &Handle{node: node, uname: uname}, qid, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (fs *Fsys) Clone(h *Handle) *Handle {
	return &Handle{node: h.node, uname: h.uname}
}

// Walk moves h one component down. "" and "." stay on the current
// directory, ".." ascends to the parent (the root's parent is itself, per
// Plan 9's walk convention) - spec.md §4.7 "Component '' or '.' stays on
// the current directory".
func (fs *Fsys) Walk(ctx context.Context, h *Handle, name string) (*Handle, ninep.Qid, error) {
	if h.node.kind != KindDir {
		return nil, ninep.Qid{}, ninep.ErrNotDirectory
	}
	if name == "" || name == "." {
		return &Handle{node: h.node, uname: h.uname}, h.node.Qid(), nil
	}
	if name == ".." {
		parent := h.node.parent
		if parent == nil {
			parent = h.node
		}
		return &Handle{node: parent, uname: h.uname}, parent.Qid(), nil
	}
	child, ok := h.node.lookupChild(name)
	if !ok {
		return nil, ninep.Qid{}, ninep.ErrNotFound
	}
	return &Handle{node: child, uname: h.uname}, child.Qid(), nil
}

func (fs *Fsys) Open(ctx context.Context, h *Handle, mode uint8) (ninep.Qid, uint32, error) {
	n := h.node
	switch mode & 3 {
	case ninep.OWRITE, ninep.OREADWRITE:
		n.mu.RLock()
		writable := n.mode&ninep.DMWRITE != 0
		n.mu.RUnlock()
		if !writable {
			return ninep.Qid{}, 0, ninep.ErrPermission
		}
	}
	if mode&ninep.OTRUNC != 0 && n.kind == KindFile {
		n.mu.Lock()
		n.data = nil
		n.qidVersion++
		n.mu.Unlock()
	}
	return n.Qid(), ninep.DefaultIounit, nil
}

// Create makes name under the directory h denotes, then mutates h in
// place to reference it (spec.md §4.6 Tcreate: "the fid now refers to the
// newly created file").
func (fs *Fsys) Create(ctx context.Context, h *Handle, name string, perm ninep.Perm, mode uint8, ext string) (ninep.Qid, uint32, error) {
	var (
		child *Node
		err   error
	)
	switch {
	case perm&ninep.DMDIR != 0:
		child, err = fs.Tree.MkDir(h.node, name, h.uname, h.uname, perm)
	case perm&ninep.DMSYMLINK != 0:
		child, err = fs.Tree.MkSymlink(h.node, name, ext, h.uname, h.uname)
	case perm&ninep.DMDEVICE != 0:
		block, major, minor, perr := parseDeviceExtString(ext)
		if perr != nil {
			return ninep.Qid{}, 0, perr
		}
		child, err = fs.Tree.MkDevice(h.node, name, block, major, minor, h.uname, h.uname)
	case perm&ninep.DMNAMEDPIPE != 0:
		child, err = fs.Tree.MkPipe(h.node, name, h.uname, h.uname)
	case perm&ninep.DMSOCKET != 0:
		child, err = fs.Tree.MkSocket(h.node, name, h.uname, h.uname)
	default:
		child, err = fs.Tree.MkFile(h.node, name, h.uname, h.uname, perm)
	}
	if err != nil {
		return ninep.Qid{}, 0, err
	}
	h.node = child
	return child.Qid(), ninep.DefaultIounit, nil
}

func parseDeviceExtString(ext string) (block bool, major, minor uint32, err error) {
	var kind string
	var maj, min uint32
	n := 0
	for _, tok := range strings.Fields(ext) {
		switch n {
		case 0:
			kind = tok
		case 1:
			maj = atoui32(tok)
		case 2:
			min = atoui32(tok)
		}
		n++
	}
	if n != 3 {
		return false, 0, 0, ninep.ErrMalformedMessage
	}
	return kind == "b", maj, min, nil
}

func atoui32(s string) uint32 {
	var v uint32
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + uint32(c-'0')
	}
	return v
}

// Readdir lists h's children, prefixed with the synthetic "." (self) and
// ".." (parent, or self at the root) entries every directory listing
// carries (spec.md §4.7, P6: "every child … plus '.' and '..'"). offset/
// count are accepted for interface symmetry but the generic dispatcher
// does its own byte-level paging over the encoded result, so this always
// returns everything.
func (fs *Fsys) Readdir(ctx context.Context, h *Handle, offset uint64, count int) ([]ninep.Dir, error) {
	if h.node.kind != KindDir {
		return nil, ninep.ErrNotDirectory
	}

	self := h.node.Stat()
	self.Name = "."
	parentNode := h.node.parent
	if parentNode == nil {
		parentNode = h.node
	}
	parent := parentNode.Stat()
	parent.Name = ".."
	dirs := []ninep.Dir{self, parent}

	names := h.node.childNames()
	for _, name := range names {
		child, ok := h.node.lookupChild(name)
		if !ok {
			continue
		}
		dirs = append(dirs, child.Stat())
	}
	return dirs, nil
}

func (fs *Fsys) ReadAt(ctx context.Context, h *Handle, offset uint64, p []byte) (int, error) {
	n := h.node
	if n.kind == KindDir {
		return 0, ninep.ErrNotDirectory
	}
	if n.OnRead != nil {
		return n.OnRead(n, offset, p)
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if offset >= uint64(len(n.data)) {
		return 0, nil
	}
	return copy(p, n.data[offset:]), nil
}

func (fs *Fsys) WriteAt(ctx context.Context, h *Handle, offset uint64, p []byte) (int, error) {
	n := h.node
	if n.kind == KindDir {
		return 0, ninep.ErrNotDirectory
	}
	if n.OnWrite != nil {
		return n.OnWrite(n, offset, p)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	end := offset + uint64(len(p))
	if end > uint64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:], p)
	n.qidVersion++
	n.mtime = now()
	return len(p), nil
}

func (fs *Fsys) Stat(ctx context.Context, h *Handle) (ninep.Dir, error) {
	return h.node.Stat(), nil
}

func (fs *Fsys) Wstat(ctx context.Context, h *Handle, d ninep.Dir) error {
	n := h.node
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mode = (n.mode &^ ninep.DMPERM) | (d.Mode & ninep.DMPERM)
	if d.Name != "" && d.Name != n.name {
		if n.parent != nil {
			n.parent.removeChild(n.name)
			n.name = d.Name
			n.parent.addChild(n)
		} else {
			n.name = d.Name
		}
	}
	if d.Uid != "" {
		n.uid = d.Uid
	}
	if d.Gid != "" {
		n.gid = d.Gid
	}
	if d.Mtime != 0 {
		n.mtime = d.Mtime
	}
	return nil
}

func (fs *Fsys) Remove(ctx context.Context, h *Handle) error {
	n := h.node
	if n.parent == nil {
		return ninep.ErrPermission
	}
	n.parent.removeChild(n.name)
	return nil
}

func (fs *Fsys) Qid(h *Handle) ninep.Qid {
	return h.node.Qid()
}

func (fs *Fsys) Clunk(h *Handle) {}

package x11

import (
	"github.com/BurntSushi/xgb/xproto"
)

// QueryTree resolves the window's place in the window forest in one round
// trip: the root of its tree, its parent (nil for the root window) and its
// children. An invalid window id fails with a ProtocolError.
func (w Window) QueryTree() (root Window, parent *Window, children []Window, err error) {
	if err = w.conn.alive(); err != nil {
		return Window{}, nil, nil, err
	}
	reply, err := xproto.QueryTree(w.conn.conn(), w.ID).Reply()
	if err != nil {
		return Window{}, nil, nil, newProtocolError("query tree", err)
	}
	root = w.conn.NewWindow(reply.Root)
	if reply.Parent != xproto.WindowNone {
		p := w.conn.NewWindow(reply.Parent)
		parent = &p
	}
	children = make([]Window, 0, len(reply.Children))
	for _, child := range reply.Children {
		if child == xproto.WindowNone {
			continue
		}
		children = append(children, w.conn.NewWindow(child))
	}
	return root, parent, children, nil
}

// TreeRoot returns the root window of this window's tree.
func (w Window) TreeRoot() (Window, error) {
	root, _, _, err := w.QueryTree()
	return root, err
}

// Parent returns the window's parent, or nil for the root window.
func (w Window) Parent() (*Window, error) {
	_, parent, _, err := w.QueryTree()
	return parent, err
}

// Children returns the window's children.
func (w Window) Children() ([]Window, error) {
	_, _, children, err := w.QueryTree()
	return children, err
}

// IsRootWindow reports whether this window is the root of its own tree.
func (w Window) IsRootWindow() (bool, error) {
	root, err := w.TreeRoot()
	if err != nil {
		return false, err
	}
	return root.ID == w.ID, nil
}

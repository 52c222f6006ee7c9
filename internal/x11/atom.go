package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Intern resolves a property or type name to its server-side atom, creating
// the atom unless onlyIfExists is set. With onlyIfExists, an unknown name
// yields xproto.AtomNone rather than an error.
//
// Atoms are server-cached, so the same name always resolves to the same id
// within one connection. This layer keeps no client-side cache: accessors
// that take a name re-intern it on every call, trading one extra round trip
// for a simpler API.
func (c *Connection) Intern(name string, onlyIfExists bool) (xproto.Atom, error) {
	if err := c.alive(); err != nil {
		return xproto.AtomNone, err
	}
	reply, err := xproto.InternAtom(c.conn(), onlyIfExists, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, newProtocolError(fmt.Sprintf("intern atom %q", name), err)
	}
	return reply.Atom, nil
}

// AtomName is the reverse lookup: it returns the name the server has on
// record for atom. Atoms from another connection are not valid here; an atom
// the server does not know fails with ErrUnknownAtom.
func (c *Connection) AtomName(atom xproto.Atom) (string, error) {
	if err := c.alive(); err != nil {
		return "", err
	}
	reply, err := xproto.GetAtomName(c.conn(), atom).Reply()
	if err != nil {
		return "", fmt.Errorf("%w: atom %d: %v", ErrUnknownAtom, atom, err)
	}
	return reply.Name, nil
}

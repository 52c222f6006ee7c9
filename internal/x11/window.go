package x11

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"

	"iconjack/internal/icon"
)

// Property and type names this layer reads and writes.
const (
	propNetWMIcon        = "_NET_WM_ICON"
	propNetWMPID         = "_NET_WM_PID"
	propNetWMName        = "_NET_WM_NAME"
	propNetActiveWindow  = "_NET_ACTIVE_WINDOW"
	propNetClientList    = "_NET_CLIENT_LIST"
	propWMClass          = "WM_CLASS"
	propGTKApplicationID = "_GTK_APPLICATION_ID"
	propNetStartupID     = "_NET_STARTUP_ID"
	typeUTF8String       = "UTF8_STRING"
)

// placeholderPID sits above any pid the kernel hands out by default, so a
// window tracker that groups windows by process cannot find a matching
// application. Deleting _NET_WM_PID outright does not work: window managers
// that validate the pid ignore the deletion and keep their cached value.
const placeholderPID = 1 << 21

// Window addresses a server-side window on one connection. Accessors perform
// a live round trip on every call; nothing is cached client-side.
type Window struct {
	conn *Connection
	ID   xproto.Window
}

// ClassHint is a window's (instance, class) identity pair, stored together
// in the WM_CLASS property. Window managers use it to associate windows with
// application metadata. Absence of the property is distinct from a hint with
// empty strings.
type ClassHint struct {
	Instance string
	Class    string
}

func (w Window) getProperty(name string, typ xproto.Atom) (*PropertyValue, error) {
	prop, err := w.conn.Intern(name, false)
	if err != nil {
		return nil, err
	}
	return w.conn.GetProperty(w.ID, prop, typ)
}

func (w Window) setProperty(name string, typ xproto.Atom, value PropertyValue) error {
	prop, err := w.conn.Intern(name, false)
	if err != nil {
		return err
	}
	return w.conn.SetProperty(w.ID, prop, typ, value)
}

// DeleteProperty removes the named property. Deleting an absent property is
// a no-op.
func (w Window) DeleteProperty(name string) error {
	prop, err := w.conn.Intern(name, false)
	if err != nil {
		return err
	}
	return w.conn.DeleteProperty(w.ID, prop)
}

// TextProperty reads a UTF8_STRING property. The second return value
// distinguishes an absent property from one set to the empty string.
func (w Window) TextProperty(name string) (string, bool, error) {
	typ, err := w.conn.Intern(typeUTF8String, false)
	if err != nil {
		return "", false, err
	}
	value, err := w.getProperty(name, typ)
	if err != nil || value == nil {
		return "", false, err
	}
	return value.Text(), true, nil
}

// SetTextProperty writes a UTF8_STRING property.
func (w Window) SetTextProperty(name, s string) error {
	typ, err := w.conn.Intern(typeUTF8String, false)
	if err != nil {
		return err
	}
	return w.setProperty(name, typ, TextValue(s))
}

// Name returns the window's _NET_WM_NAME.
func (w Window) Name() (string, bool, error) {
	return w.TextProperty(propNetWMName)
}

// SetName sets the window's _NET_WM_NAME.
func (w Window) SetName(name string) error {
	return w.SetTextProperty(propNetWMName, name)
}

// PID returns the process id advertised in _NET_WM_PID. No range is
// enforced; the property may hold any 32-bit value.
func (w Window) PID() (uint32, bool, error) {
	value, err := w.getProperty(propNetWMPID, xproto.AtomCardinal)
	if err != nil || value == nil {
		return 0, false, err
	}
	cards := value.Cardinals()
	if len(cards) == 0 {
		return 0, false, nil
	}
	return cards[0], true, nil
}

// SetPID writes _NET_WM_PID as a single 32-bit element.
func (w Window) SetPID(pid uint32) error {
	return w.setProperty(propNetWMPID, xproto.AtomCardinal, CardinalValue([]uint32{pid}))
}

// DeletePID removes _NET_WM_PID.
func (w Window) DeletePID() error {
	return w.DeleteProperty(propNetWMPID)
}

// ActiveWindow reads _NET_ACTIVE_WINDOW. It is maintained by the window
// manager on the root window; querying it elsewhere yields no value.
func (w Window) ActiveWindow() (Window, bool, error) {
	value, err := w.getProperty(propNetActiveWindow, xproto.AtomWindow)
	if err != nil || value == nil {
		return Window{}, false, err
	}
	ids := value.Windows()
	if len(ids) == 0 || ids[0] == xproto.WindowNone {
		return Window{}, false, nil
	}
	return w.conn.NewWindow(ids[0]), true, nil
}

// ClientList returns the window manager's list of managed top-level windows
// (_NET_CLIENT_LIST). It may only be called on the root window; anywhere
// else it fails with ErrNotRootWindow.
func (w Window) ClientList() ([]Window, error) {
	isRoot, err := w.IsRootWindow()
	if err != nil {
		return nil, err
	}
	if !isRoot {
		return nil, ErrNotRootWindow
	}
	value, err := w.getProperty(propNetClientList, xproto.AtomWindow)
	if err != nil || value == nil {
		return nil, err
	}
	ids := value.Windows()
	windows := make([]Window, 0, len(ids))
	for _, id := range ids {
		windows = append(windows, w.conn.NewWindow(id))
	}
	return windows, nil
}

// ClassHint reads WM_CLASS. A nil hint means the property is not set.
func (w Window) ClassHint() (*ClassHint, error) {
	value, err := w.getProperty(propWMClass, xproto.AtomString)
	if err != nil || value == nil {
		return nil, err
	}
	// WM_CLASS stores two NUL-terminated strings back to back.
	parts := strings.Split(strings.TrimSuffix(value.Text(), "\x00"), "\x00")
	hint := &ClassHint{Instance: parts[0]}
	if len(parts) > 1 {
		hint.Class = parts[1]
	}
	return hint, nil
}

// SetClassHint writes both WM_CLASS fields atomically as one property.
func (w Window) SetClassHint(hint ClassHint) error {
	data := hint.Instance + "\x00" + hint.Class + "\x00"
	return w.setProperty(propWMClass, xproto.AtomString, TextValue(data))
}

// DeleteClassHint removes WM_CLASS.
func (w Window) DeleteClassHint() error {
	return w.DeleteProperty(propWMClass)
}

// GTKApplicationID reads _GTK_APPLICATION_ID, one of the identifiers window
// managers use to look up a cached application icon.
func (w Window) GTKApplicationID() (string, bool, error) {
	return w.TextProperty(propGTKApplicationID)
}

// SetGTKApplicationID writes _GTK_APPLICATION_ID.
func (w Window) SetGTKApplicationID(id string) error {
	return w.SetTextProperty(propGTKApplicationID, id)
}

// DeleteGTKApplicationID removes _GTK_APPLICATION_ID.
func (w Window) DeleteGTKApplicationID() error {
	return w.DeleteProperty(propGTKApplicationID)
}

// StartupID reads _NET_STARTUP_ID, the startup-notification identifier some
// window managers use to associate a window with the application that opened
// it.
func (w Window) StartupID() (string, bool, error) {
	return w.TextProperty(propNetStartupID)
}

// SetStartupID writes _NET_STARTUP_ID.
func (w Window) SetStartupID(id string) error {
	return w.SetTextProperty(propNetStartupID, id)
}

// Show maps the window.
func (w Window) Show() error {
	if err := w.conn.alive(); err != nil {
		return err
	}
	xproto.MapWindow(w.conn.conn(), w.ID)
	return nil
}

// Hide unmaps the window.
func (w Window) Hide() error {
	if err := w.conn.alive(); err != nil {
		return err
	}
	xproto.UnmapWindow(w.conn.conn(), w.ID)
	return nil
}

// Icon decodes _NET_WM_ICON into an icon set. An absent property is an empty
// set, not an error.
func (w Window) Icon() (icon.Set, error) {
	value, err := w.getProperty(propNetWMIcon, xproto.AtomCardinal)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return icon.Set{}, nil
	}
	return icon.Decode(value.Cardinals())
}

// DeleteIcon removes _NET_WM_ICON.
func (w Window) DeleteIcon() error {
	return w.DeleteProperty(propNetWMIcon)
}

// IdentityPolicy selects what happens to the window's advertised pid after
// an icon write.
type IdentityPolicy int

const (
	// IdentityRestore puts the snapshotted pid back once the icon is
	// written.
	IdentityRestore IdentityPolicy = iota
	// IdentityRandomize leaves a random out-of-range pid in place so the
	// window stays unassociated even after later class hint changes.
	IdentityRandomize
)

// SetIcon encodes the icon set and writes _NET_WM_ICON with the restore
// policy. See SetIconPolicy.
func (w Window) SetIcon(set icon.Set) error {
	return w.SetIconPolicy(set, IdentityRestore)
}

// SetIconPolicy writes _NET_WM_ICON while defeating the window manager's
// app-icon cache. The window's identity-correlating properties (pid, class
// hint, GTK application id) would otherwise cause the manager to keep
// serving a cached per-application icon instead of the one set here.
//
// The sequence snapshots pid, class hint, GTK application id and startup id;
// replaces the pid with an out-of-range value and deletes the class hint and
// GTK application id; writes the icon; then restores every snapshotted value
// that was present. Properties that were absent stay absent. Restoration
// runs on every exit path, including a failed icon write.
func (w Window) SetIconPolicy(set icon.Set, policy IdentityPolicy) error {
	words, err := icon.Encode(set)
	if err != nil {
		return err
	}
	placeholder := uint32(placeholderPID)
	restorePID := true
	if policy == IdentityRandomize {
		placeholder = randomUnusedPID()
		restorePID = false
	}
	return withMaskedIdentity(w, placeholder, restorePID, func() error {
		return w.setProperty(propNetWMIcon, xproto.AtomCardinal, CardinalValue(words))
	})
}

// DisconnectFromIconCache permanently severs the window from its
// application's cached icon: the pid is randomized above the kernel's pid
// range and the identifying text properties are set to empty values.
// Empty values rather than deletions, because window trackers keep their
// stored copy when a property merely disappears.
func (w Window) DisconnectFromIconCache() error {
	if err := w.SetPID(randomUnusedPID()); err != nil {
		return err
	}
	if err := w.SetStartupID(""); err != nil {
		return err
	}
	if err := w.SetGTKApplicationID(""); err != nil {
		return err
	}
	return w.SetClassHint(ClassHint{})
}

// identityStore is the subset of window metadata touched by the icon cache
// defeat sequence. Window implements it; tests substitute a fake to inject
// write failures.
type identityStore interface {
	PID() (uint32, bool, error)
	SetPID(uint32) error
	ClassHint() (*ClassHint, error)
	SetClassHint(ClassHint) error
	DeleteClassHint() error
	GTKApplicationID() (string, bool, error)
	SetGTKApplicationID(string) error
	DeleteGTKApplicationID() error
	StartupID() (string, bool, error)
	SetStartupID(string) error
}

// identitySnapshot records which identity properties were present before
// masking, and their values.
type identitySnapshot struct {
	pid           uint32
	havePID       bool
	classHint     *ClassHint
	gtkAppID      string
	haveGTKAppID  bool
	startupID     string
	haveStartupID bool
}

func snapshotIdentity(w identityStore) (*identitySnapshot, error) {
	snap := &identitySnapshot{}
	var err error
	if snap.pid, snap.havePID, err = w.PID(); err != nil {
		return nil, err
	}
	if snap.classHint, err = w.ClassHint(); err != nil {
		return nil, err
	}
	if snap.gtkAppID, snap.haveGTKAppID, err = w.GTKApplicationID(); err != nil {
		return nil, err
	}
	if snap.startupID, snap.haveStartupID, err = w.StartupID(); err != nil {
		return nil, err
	}
	return snap, nil
}

// restore puts back every property the snapshot recorded as present. It
// attempts all of them even when one fails.
func (s *identitySnapshot) restore(w identityStore, restorePID bool) error {
	var errs []error
	if restorePID && s.havePID {
		errs = append(errs, w.SetPID(s.pid))
	}
	if s.classHint != nil {
		errs = append(errs, w.SetClassHint(*s.classHint))
	}
	if s.haveGTKAppID {
		errs = append(errs, w.SetGTKApplicationID(s.gtkAppID))
	}
	if s.haveStartupID {
		errs = append(errs, w.SetStartupID(s.startupID))
	}
	return errors.Join(errs...)
}

// withMaskedIdentity runs write with the window's identity-correlating
// properties masked, and restores them on every exit path. A failure of
// write still restores; a restore failure is joined onto the primary error
// rather than masking it.
func withMaskedIdentity(w identityStore, placeholder uint32, restorePID bool, write func() error) (err error) {
	snap, err := snapshotIdentity(w)
	if err != nil {
		return fmt.Errorf("snapshot window identity: %w", err)
	}
	defer func() {
		if rerr := snap.restore(w, restorePID); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore window identity: %w", rerr))
		}
	}()
	if err := w.SetPID(placeholder); err != nil {
		return err
	}
	if err := w.DeleteClassHint(); err != nil {
		return err
	}
	if err := w.DeleteGTKApplicationID(); err != nil {
		return err
	}
	return write()
}

// randomUnusedPID picks a pid strictly above the kernel's pid range so it
// can never collide with a running process, while staying a positive 32-bit
// value for window managers that validate the property.
func randomUnusedPID() uint32 {
	maxPID := int64(1 << 22)
	if data, err := os.ReadFile("/proc/sys/kernel/pid_max"); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); err == nil {
			maxPID = v
		}
	}
	const maxLegal = int64(1<<31 - 1)
	if maxPID >= maxLegal {
		return uint32(maxLegal)
	}
	return uint32(maxPID + 1 + rand.Int64N(maxLegal-maxPID))
}

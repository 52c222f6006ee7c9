package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// ErrorHandler receives protocol errors that the server reports
// asynchronously, i.e. errors for requests that were issued without waiting
// for an acknowledgement. There is a single handler per connection; install
// it once during setup and do not replace it while operations are in flight.
type ErrorHandler func(error)

// Connection manages one X11 display session. All atoms and windows resolved
// through it are only meaningful for this connection.
//
// A Connection is not safe for concurrent use: the underlying session is a
// single ordered request/reply stream, and interleaving chunked property
// reads from two goroutines would corrupt chunk reassembly.
type Connection struct {
	xu          *xgbutil.XUtil
	closed      bool
	synchronous bool
	onError     ErrorHandler
}

// Open establishes a connection to the named display, or to the default
// display ($DISPLAY) when display is empty.
func Open(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display %q: %w", display, err)
	}
	return &Connection{
		xu: xu,
		onError: func(err error) {
			slog.Error("x11 protocol error", "err", err)
		},
	}, nil
}

// Close disconnects from the X server. It is idempotent; any operation after
// Close fails with ErrClosed.
func (c *Connection) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.xu.Conn().Close()
}

// SetErrorHandler replaces the handler for asynchronously reported protocol
// errors. A nil handler discards them.
func (c *Connection) SetErrorHandler(h ErrorHandler) {
	c.onError = h
}

// Synchronize toggles synchronous mode. When enabled, mutating requests use
// their checked form and block until the server acknowledges them, so a
// protocol error is attributed to the exact request that caused it. Results
// are identical either way; this only changes error timing.
func (c *Connection) Synchronize(enabled bool) {
	c.synchronous = enabled
}

// Flush pushes buffered requests to the server without waiting for replies.
// A reply-less no-op request forces the transport to write out its buffer.
func (c *Connection) Flush() error {
	if err := c.alive(); err != nil {
		return err
	}
	xproto.NoOperation(c.conn())
	return nil
}

// Sync blocks until the server has processed every buffered request. When
// discardEvents is set, events queued in the interim are dropped; protocol
// errors found among them are routed to the error handler.
func (c *Connection) Sync(discardEvents bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	if _, err := xproto.GetInputFocus(c.conn()).Reply(); err != nil {
		return newProtocolError("sync", err)
	}
	if discardEvents {
		c.drainEvents()
	}
	return nil
}

// drainEvents empties the event queue, reporting any queued errors.
func (c *Connection) drainEvents() {
	for {
		ev, xerr := c.conn().PollForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			c.reportError(newProtocolError("async request", xerr))
		}
	}
}

// RootWindow returns the root window of the default screen.
func (c *Connection) RootWindow() Window {
	return Window{conn: c, ID: c.xu.RootWin()}
}

// NewWindow wraps a raw window id in a handle bound to this connection. The
// id is not validated; an invalid id surfaces as a ProtocolError on first use.
func (c *Connection) NewWindow(id xproto.Window) Window {
	return Window{conn: c, ID: id}
}

func (c *Connection) conn() *xgb.Conn { return c.xu.Conn() }

func (c *Connection) alive() error {
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Connection) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

// changeProperty issues a replace-mode ChangeProperty request, checked or
// unchecked depending on the synchronize mode.
func (c *Connection) changeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, nelems uint32, data []byte) error {
	if c.synchronous {
		err := xproto.ChangePropertyChecked(c.conn(), xproto.PropModeReplace,
			win, prop, typ, format, nelems, data).Check()
		return newProtocolError("change property", err)
	}
	xproto.ChangeProperty(c.conn(), xproto.PropModeReplace,
		win, prop, typ, format, nelems, data)
	return nil
}

func (c *Connection) deleteProperty(win xproto.Window, prop xproto.Atom) error {
	if c.synchronous {
		err := xproto.DeletePropertyChecked(c.conn(), win, prop).Check()
		return newProtocolError("delete property", err)
	}
	xproto.DeleteProperty(c.conn(), win, prop)
	return nil
}

package mcp

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/BurntSushi/xgb/xproto"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"iconjack/internal/config"
	"iconjack/internal/icon"
	"iconjack/internal/x11"
)

// resolveWindow maps a tool's window argument to a handle: 0 means the
// currently active window.
func (s *Server) resolveWindow(id uint32) (x11.Window, error) {
	if id != 0 {
		return s.conn.NewWindow(xproto.Window(id)), nil
	}
	active, ok, err := s.conn.RootWindow().ActiveWindow()
	if err != nil {
		return x11.Window{}, err
	}
	if !ok {
		return x11.Window{}, fmt.Errorf("no active window and no window id given")
	}
	return active, nil
}

func (s *Server) iconPolicy() x11.IdentityPolicy {
	if s.config.PIDPolicy == config.PIDPolicyRandomize {
		return x11.IdentityRandomize
	}
	return x11.IdentityRestore
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	root := s.conn.RootWindow()
	windows, err := root.ClientList()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	active, haveActive, err := root.ActiveWindow()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	out := ListWindowsOutput{Windows: make([]WindowSummary, 0, len(windows))}
	for _, w := range windows {
		summary := WindowSummary{
			ID:     uint32(w.ID),
			Active: haveActive && w.ID == active.ID,
		}
		if name, ok, err := w.Name(); err == nil && ok {
			summary.Name = name
		}
		if pid, ok, err := w.PID(); err == nil && ok {
			summary.PID = pid
		}
		if hint, err := w.ClassHint(); err == nil && hint != nil {
			summary.Instance = hint.Instance
			summary.Class = hint.Class
		}
		out.Windows = append(out.Windows, summary)
	}
	return nil, out, nil
}

func (s *Server) handleWindowInfo(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInfoInput) (*mcpsdk.CallToolResult, WindowInfoOutput, error) {
	w, err := s.resolveWindow(args.Window)
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}

	out := WindowInfoOutput{ID: uint32(w.ID)}
	if name, ok, err := w.Name(); err != nil {
		return nil, WindowInfoOutput{}, err
	} else if ok {
		out.Name = name
	}
	if pid, ok, err := w.PID(); err != nil {
		return nil, WindowInfoOutput{}, err
	} else if ok {
		out.PID = &pid
	}
	hint, err := w.ClassHint()
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}
	if hint != nil {
		out.Instance = &hint.Instance
		out.Class = &hint.Class
	}
	if id, ok, err := w.GTKApplicationID(); err != nil {
		return nil, WindowInfoOutput{}, err
	} else if ok {
		out.GTKApplicationID = &id
	}
	if id, ok, err := w.StartupID(); err != nil {
		return nil, WindowInfoOutput{}, err
	} else if ok {
		out.StartupID = &id
	}

	set, err := w.Icon()
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}
	for _, size := range set.Sizes() {
		out.IconSizes = append(out.IconSizes, fmt.Sprintf("%dx%d", size.W, size.H))
	}

	root, parent, _, err := w.QueryTree()
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}
	out.Root = uint32(root.ID)
	out.IsRoot = root.ID == w.ID
	if parent != nil {
		out.Parent = uint32(parent.ID)
	}
	return nil, out, nil
}

func (s *Server) handleSetWindowIcon(_ context.Context, _ *mcpsdk.CallToolRequest, args SetWindowIconInput) (*mcpsdk.CallToolResult, SetWindowIconOutput, error) {
	w, err := s.resolveWindow(args.Window)
	if err != nil {
		return nil, SetWindowIconOutput{}, err
	}

	sizes := icon.SquareSizes(s.config.IconSizes)
	set, err := icon.BuildSet(args.Image, args.Invert, sizes, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if err != nil {
		return nil, SetWindowIconOutput{}, err
	}
	if err := w.SetIconPolicy(set, s.iconPolicy()); err != nil {
		return nil, SetWindowIconOutput{}, err
	}
	if err := s.conn.Sync(true); err != nil {
		return nil, SetWindowIconOutput{}, err
	}

	out := SetWindowIconOutput{Window: uint32(w.ID)}
	for _, size := range set.Sizes() {
		out.Sizes = append(out.Sizes, fmt.Sprintf("%dx%d", size.W, size.H))
	}
	return nil, out, nil
}

func (s *Server) handleClearWindowIcon(_ context.Context, _ *mcpsdk.CallToolRequest, args ClearWindowIconInput) (*mcpsdk.CallToolResult, ClearWindowIconOutput, error) {
	w, err := s.resolveWindow(args.Window)
	if err != nil {
		return nil, ClearWindowIconOutput{}, err
	}
	if err := w.DeleteIcon(); err != nil {
		return nil, ClearWindowIconOutput{}, err
	}
	if err := s.conn.Sync(true); err != nil {
		return nil, ClearWindowIconOutput{}, err
	}
	return nil, ClearWindowIconOutput{Window: uint32(w.ID)}, nil
}

package mcp

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowSummary describes one managed top-level window.
type WindowSummary struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name,omitempty"`
	PID      uint32 `json:"pid,omitempty"`
	Instance string `json:"instance,omitempty"`
	Class    string `json:"class,omitempty"`
	Active   bool   `json:"active"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowSummary `json:"windows"`
}

// WindowInfoInput is the input for the window_info tool.
type WindowInfoInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X window id. Omit or pass 0 to use the currently active window."`
}

// WindowInfoOutput is the output for the window_info tool.
type WindowInfoOutput struct {
	ID               uint32   `json:"id"`
	Name             string   `json:"name,omitempty"`
	PID              *uint32  `json:"pid,omitempty"`
	Instance         *string  `json:"instance,omitempty"`
	Class            *string  `json:"class,omitempty"`
	GTKApplicationID *string  `json:"gtk_application_id,omitempty"`
	StartupID        *string  `json:"startup_id,omitempty"`
	IconSizes        []string `json:"icon_sizes,omitempty"`
	IsRoot           bool     `json:"is_root"`
	Parent           uint32   `json:"parent,omitempty"`
	Root             uint32   `json:"root"`
}

// SetWindowIconInput is the input for the set_window_icon tool.
type SetWindowIconInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X window id. Omit or pass 0 to use the currently active window."`
	Image  string `json:"image,omitempty" jsonschema:"Path to a PNG or JPEG file to use as the icon. Omit to generate a gradient test icon."`
	Invert bool   `json:"invert,omitempty" jsonschema:"Invert the icon's colors before applying."`
}

// SetWindowIconOutput is the output for the set_window_icon tool.
type SetWindowIconOutput struct {
	Window uint32   `json:"window"`
	Sizes  []string `json:"sizes"`
}

// ClearWindowIconInput is the input for the clear_window_icon tool.
type ClearWindowIconInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X window id. Omit or pass 0 to use the currently active window."`
}

// ClearWindowIconOutput is the output for the clear_window_icon tool.
type ClearWindowIconOutput struct {
	Window uint32 `json:"window"`
}

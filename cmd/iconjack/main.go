// Command iconjack gives individual X11 windows their own icons by writing
// _NET_WM_ICON while defeating the window manager's per-application icon
// cache.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"

	"iconjack/internal/config"
	"iconjack/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "apply":
		os.Exit(runApply(os.Args[2:]))
	case "weirdify":
		os.Exit(runWeirdify(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "info":
		os.Exit(runInfo(os.Args[2:]))
	case "clear":
		os.Exit(runClear(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: iconjack <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  apply      Set an icon on a window (default: the active window)")
	fmt.Fprintln(w, "  weirdify   Set a gradient test icon on every managed window")
	fmt.Fprintln(w, "  list       List managed windows with pid and class hint")
	fmt.Fprintln(w, "  info       Show one window's metadata")
	fmt.Fprintln(w, "  clear      Remove a window's icon property")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve  Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  help       Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'iconjack <command> -h' for command options.")
}

// initLogger installs the console slog handler at the configured level.
func initLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: l,
	})))
}

// loadConfig reads the config file (the default path when empty) and applies
// command-line overrides.
func loadConfig(path, display, pidPolicy string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if display != "" {
		cfg.Display = display
	}
	if pidPolicy != "" {
		cfg.PIDPolicy = pidPolicy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openConnection opens the display from cfg and applies the synchronize mode.
func openConnection(cfg *config.Config) (*x11.Connection, error) {
	conn, err := x11.Open(cfg.Display)
	if err != nil {
		return nil, err
	}
	conn.Synchronize(cfg.Synchronize)
	return conn, nil
}

func iconPolicy(cfg *config.Config) x11.IdentityPolicy {
	if cfg.PIDPolicy == config.PIDPolicyRandomize {
		return x11.IdentityRandomize
	}
	return x11.IdentityRestore
}

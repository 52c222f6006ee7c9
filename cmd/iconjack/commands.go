package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/BurntSushi/xgb/xproto"

	"iconjack/internal/icon"
	"iconjack/internal/mcp"
	"iconjack/internal/x11"
)

// commonFlags adds the flags shared by every connection-using command.
func commonFlags(fs *flag.FlagSet) (configPath, display, window *string) {
	configPath = fs.String("config", "", "config file path (default: ~/.config/iconjack/config.yaml)")
	display = fs.String("display", "", "X display to connect to (default: $DISPLAY)")
	window = fs.String("window", "", "target window id, decimal or 0x-hex (default: the active window)")
	return configPath, display, window
}

// resolveTarget picks the window a command operates on: an explicit id when
// given, else the window manager's active window.
func resolveTarget(conn *x11.Connection, windowFlag string) (x11.Window, error) {
	if windowFlag != "" {
		id, err := strconv.ParseUint(windowFlag, 0, 32)
		if err != nil {
			return x11.Window{}, fmt.Errorf("invalid window id %q: %w", windowFlag, err)
		}
		return conn.NewWindow(xproto.Window(id)), nil
	}
	active, ok, err := conn.RootWindow().ActiveWindow()
	if err != nil {
		return x11.Window{}, err
	}
	if !ok {
		return x11.Window{}, fmt.Errorf("no active window; pass -window explicitly")
	}
	return active, nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	configPath, display, window := commonFlags(fs)
	imagePath := fs.String("image", "", "PNG or JPEG file to use as the icon (default: generated gradient)")
	invert := fs.Bool("invert", false, "invert the icon's colors")
	pidPolicy := fs.String("pid-policy", "", "restore or randomize the window's pid after the write (overrides config)")
	disconnect := fs.Bool("disconnect", false, "permanently sever the window from its app's cached icon first")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *display, *pidPolicy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	initLogger(cfg.LogLevel)

	conn, err := openConnection(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	w, err := resolveTarget(conn, *window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	set, err := icon.BuildSet(*imagePath, *invert, icon.SquareSizes(cfg.IconSizes), newRand())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *disconnect {
		if err := w.DisconnectFromIconCache(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		slog.Debug("disconnected window from icon cache", "window", uint32(w.ID))
	}

	if err := w.SetIconPolicy(set, iconPolicy(cfg)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := conn.Sync(true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	slog.Info("icon applied", "window", fmt.Sprintf("0x%x", uint32(w.ID)), "images", len(set))
	return 0
}

func runWeirdify(args []string) int {
	fs := flag.NewFlagSet("weirdify", flag.ExitOnError)
	configPath, display, _ := commonFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *display, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	initLogger(cfg.LogLevel)

	conn, err := openConnection(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	windows, err := conn.RootWindow().ClientList()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sizes := icon.SquareSizes(cfg.IconSizes)
	failed := 0
	for _, w := range windows {
		set := icon.Gradient(sizes, newRand())
		if err := w.SetIconPolicy(set, iconPolicy(cfg)); err != nil {
			slog.Warn("failed to set icon", "window", fmt.Sprintf("0x%x", uint32(w.ID)), "err", err)
			failed++
		}
	}
	if err := conn.Sync(true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	slog.Info("weirdified windows", "total", len(windows), "failed", failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath, display, _ := commonFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *display, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	initLogger(cfg.LogLevel)

	conn, err := openConnection(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	root := conn.RootWindow()
	windows, err := root.ClientList()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	active, haveActive, err := root.ActiveWindow()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tPID\tCLASS\tNAME")
	for _, w := range windows {
		pid := "-"
		if p, ok, err := w.PID(); err == nil && ok {
			pid = strconv.FormatUint(uint64(p), 10)
		}
		class := "-"
		if hint, err := w.ClassHint(); err == nil && hint != nil {
			class = hint.Instance + "." + hint.Class
		}
		name := ""
		if n, ok, err := w.Name(); err == nil && ok {
			name = n
		}
		marker := ""
		if haveActive && w.ID == active.ID {
			marker = " *"
		}
		fmt.Fprintf(tw, "0x%x%s\t%s\t%s\t%s\n", uint32(w.ID), marker, pid, class, name)
	}
	tw.Flush()
	return 0
}

func runInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configPath, display, window := commonFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *display, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	initLogger(cfg.LogLevel)

	conn, err := openConnection(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	w, err := resolveTarget(conn, *window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("window: 0x%x\n", uint32(w.ID))

	printOpt := func(label, value string, present bool) {
		if present {
			fmt.Printf("%s: %q\n", label, value)
		} else {
			fmt.Printf("%s: (unset)\n", label)
		}
	}

	name, ok, err := w.Name()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printOpt("name", name, ok)

	if pid, ok, err := w.PID(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	} else if ok {
		fmt.Printf("pid: %d\n", pid)
	} else {
		fmt.Println("pid: (unset)")
	}

	hint, err := w.ClassHint()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if hint != nil {
		fmt.Printf("class hint: (%q, %q)\n", hint.Instance, hint.Class)
	} else {
		fmt.Println("class hint: (unset)")
	}

	gtkID, ok, err := w.GTKApplicationID()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printOpt("gtk application id", gtkID, ok)

	startupID, ok, err := w.StartupID()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printOpt("startup id", startupID, ok)

	set, err := w.Icon()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(set) == 0 {
		fmt.Println("icon: (unset)")
	} else {
		fmt.Print("icon sizes:")
		for _, size := range set.Sizes() {
			fmt.Printf(" %dx%d", size.W, size.H)
		}
		fmt.Println()
	}

	root, parent, children, err := w.QueryTree()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("root: 0x%x\n", uint32(root.ID))
	if parent != nil {
		fmt.Printf("parent: 0x%x\n", uint32(parent.ID))
	} else {
		fmt.Println("parent: (none, this is the root window)")
	}
	fmt.Printf("children: %d\n", len(children))
	return 0
}

func runClear(args []string) int {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath, display, window := commonFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *display, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	initLogger(cfg.LogLevel)

	conn, err := openConnection(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	w, err := resolveTarget(conn, *window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := w.DeleteIcon(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := conn.Sync(true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	slog.Info("icon cleared", "window", fmt.Sprintf("0x%x", uint32(w.ID)))
	return 0
}

func runMCP(args []string) int {
	if len(args) < 1 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: iconjack mcp serve [options]")
		return 2
	}
	fs := flag.NewFlagSet("mcp serve", flag.ExitOnError)
	configPath, display, _ := commonFlags(fs)
	fs.Parse(args[1:])

	cfg, err := loadConfig(*configPath, *display, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	initLogger(cfg.LogLevel)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

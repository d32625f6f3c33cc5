package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/hostwin/internal/appctl"
	"github.com/GriffinCanCode/hostwin/internal/dialog"
	"github.com/GriffinCanCode/hostwin/internal/events"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/window"
)

func newMonitorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "monitors [current|primary|all]",
		Short:     "List monitors",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"current", "primary", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := a.windows.Current()
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}

			switch which {
			case "current", "primary":
				get := w.CurrentMonitor
				if which == "primary" {
					get = w.PrimaryMonitor
				}
				m, err := get(ctx)
				if err != nil {
					return err
				}
				if m == nil {
					return a.printer.Print(nil)
				}
				return a.printer.Print(viewMonitor(*m))
			default:
				ms, err := w.AvailableMonitors(ctx)
				if err != nil {
					return err
				}
				views := make([]monitorView, 0, ms.Len())
				for m := range ms.All() {
					views = append(views, viewMonitor(m))
				}
				return a.printer.Print(views)
			}
		},
	}
}

func newWindowsCmd(a *app) *cobra.Command {
	var (
		detail bool
		match  string
	)
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List open windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pattern := match
			if pattern == "" {
				pattern = "**"
			}
			all, err := a.windows.Matching(ctx, pattern)
			if err != nil {
				return err
			}

			if !detail {
				labels := make([]string, 0, len(all))
				for _, w := range all {
					labels = append(labels, w.Label())
				}
				return a.printer.Print(labels)
			}
			views := make([]windowView, 0, len(all))
			for _, w := range all {
				v, err := describe(ctx, w)
				if err != nil {
					return err
				}
				views = append(views, v)
			}
			return a.printer.Print(views)
		},
	}
	cmd.Flags().BoolVarP(&detail, "long", "l", false, "Describe every window")
	cmd.Flags().StringVar(&match, "match", "", "Only labels matching this glob, e.g. 'editor/*'")
	return cmd
}

func newWindowCmd(a *app) *cobra.Command {
	var physical bool
	cmd := &cobra.Command{
		Use:   "window <label> <op> [args]",
		Short: "Query or change one window",
		Long: `Ops:
  info                          describe the window
  title [text]                  print or set the title
  show | hide | close | center
  maximize | unmaximize | minimize | unminimize | focus
  size [width height]           print or set the inner size
  position [x y]                print or set the inner position
  attention critical|informational|none
  cursor <icon>                 set the cursor icon
  move <anchor>                 snap to a monitor anchor, e.g. top-right

Sizes and positions are logical unless --physical is given.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.windows.GetByLabel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if w == nil {
				return fmt.Errorf("no window labelled %q", args[0])
			}
			return a.runWindowOp(cmd, w, args[1], args[2:], physical)
		},
	}
	cmd.Flags().BoolVar(&physical, "physical", false, "Interpret size and position arguments as physical pixels")
	return cmd
}

func (a *app) runWindowOp(cmd *cobra.Command, w *window.Window, op string, args []string, physical bool) error {
	ctx := cmd.Context()
	simple := map[string]func() error{
		"show":       func() error { return w.Show(ctx) },
		"hide":       func() error { return w.Hide(ctx) },
		"close":      func() error { return w.Close(ctx) },
		"center":     func() error { return w.Center(ctx) },
		"maximize":   func() error { return w.Maximize(ctx) },
		"unmaximize": func() error { return w.Unmaximize(ctx) },
		"minimize":   func() error { return w.Minimize(ctx) },
		"unminimize": func() error { return w.Unminimize(ctx) },
		"focus":      func() error { return w.SetFocus(ctx) },
	}
	if fn, ok := simple[op]; ok {
		if len(args) != 0 {
			return fmt.Errorf("%s takes no arguments", op)
		}
		return fn()
	}

	switch op {
	case "info":
		v, err := describe(ctx, w)
		if err != nil {
			return err
		}
		return a.printer.Print(v)
	case "title":
		if len(args) == 0 {
			title, err := w.Title(ctx)
			if err != nil {
				return err
			}
			return a.printer.Print(title)
		}
		return w.SetTitle(ctx, strings.Join(args, " "))
	case "size":
		if len(args) == 0 {
			size, err := w.InnerSize(ctx)
			if err != nil {
				return err
			}
			return a.printer.Print(viewExtent(size))
		}
		width, height, err := parsePair[uint32](args, 32, strconv.ParseUint)
		if err != nil {
			return err
		}
		if physical {
			return w.SetSize(ctx, geometry.NewPhysicalSize(width, height))
		}
		return w.SetSize(ctx, geometry.NewLogicalSize(width, height))
	case "position":
		if len(args) == 0 {
			pos, err := w.InnerPosition(ctx)
			if err != nil {
				return err
			}
			return a.printer.Print(viewPoint(pos))
		}
		x, y, err := parsePair[int32](args, 32, strconv.ParseInt)
		if err != nil {
			return err
		}
		if physical {
			return w.SetPosition(ctx, geometry.NewPhysicalPosition(x, y))
		}
		return w.SetPosition(ctx, geometry.NewLogicalPosition(x, y))
	case "attention":
		if len(args) != 1 {
			return fmt.Errorf("attention takes one of critical, informational or none")
		}
		kinds := map[string]window.UserAttentionType{
			"critical":      window.AttentionCritical,
			"informational": window.AttentionInformational,
			"none":          window.AttentionNone,
		}
		kind, ok := kinds[args[0]]
		if !ok {
			return fmt.Errorf("unknown attention type %q", args[0])
		}
		return w.RequestUserAttention(ctx, kind)
	case "cursor":
		if len(args) != 1 {
			return fmt.Errorf("cursor takes one icon name")
		}
		icon, err := window.ParseCursorIcon(args[0])
		if err != nil {
			return err
		}
		return w.SetCursorIcon(ctx, icon)
	case "move":
		if len(args) != 1 {
			return fmt.Errorf("move takes one anchor")
		}
		anchor, err := appctl.ParsePosition(args[0])
		if err != nil {
			return err
		}
		return a.control().MoveWindow(ctx, w.Label(), anchor)
	default:
		return fmt.Errorf("unknown window op %q", op)
	}
}

func parsePair[T int32 | uint32, P int64 | uint64](args []string, bits int, parse func(string, int, int) (P, error)) (T, T, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected two numbers, got %d arguments", len(args))
	}
	a, err := parse(args[0], 10, bits)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", args[0], err)
	}
	b, err := parse(args[1], 10, bits)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", args[1], err)
	}
	return T(a), T(b), nil
}

// target resolves the --target flag: empty means every listener.
func target(label string) events.Target {
	if label == "" {
		return events.AnyTarget()
	}
	return events.WindowTarget(label)
}

func newEmitCmd(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "emit <event> [json]",
		Short: "Emit an event",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("payload is not valid JSON")
				}
				payload = json.RawMessage(args[1])
			}
			return a.windows.Events().Emit(cmd.Context(), target(to), args[0], payload)
		},
	}
	cmd.Flags().StringVar(&to, "target", "", "Window label to emit to (default: everyone)")
	return cmd
}

type eventView struct {
	Event   string          `json:"event" yaml:"event"`
	ID      uint32          `json:"id" yaml:"id"`
	Payload json.RawMessage `json:"payload" yaml:"payload"`
}

func newListenCmd(a *app) *cobra.Command {
	var (
		once bool
		on   string
	)
	cmd := &cobra.Command{
		Use:   "listen <event>",
		Short: "Print events until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			received := make(chan eventView, 16)
			handler := func(ev events.Event[json.RawMessage]) {
				select {
				case received <- eventView{Event: ev.Event, ID: ev.ID, Payload: ev.Payload}:
				case <-ctx.Done():
				}
			}

			cancel, err := a.windows.Events().Subscribe(ctx, target(on), args[0], !once, handler)
			if err != nil {
				return err
			}
			defer func() { _ = cancel(context.WithoutCancel(ctx)) }()

			for {
				select {
				case ev := <-received:
					if err := a.printer.Print(ev); err != nil {
						return err
					}
					if once {
						return nil
					}
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Exit after the first event")
	cmd.Flags().StringVar(&on, "target", "", "Only events for this window label")
	return cmd
}

func newOSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "os",
		Short: "Show facts about the host operating system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.osInfo().Collect(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Print(info)
		},
	}
}

type appView struct {
	Name           string `json:"name" yaml:"name"`
	Version        string `json:"version" yaml:"version"`
	RuntimeVersion string `json:"runtimeVersion" yaml:"runtimeVersion"`
}

func newAppCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Show the host application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := a.control()
			var (
				v   appView
				err error
			)
			if v.Name, err = c.Name(ctx); err != nil {
				return err
			}
			if v.Version, err = c.Version(ctx); err != nil {
				return err
			}
			if v.RuntimeVersion, err = c.RuntimeVersion(ctx); err != nil {
				return err
			}
			return a.printer.Print(v)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the application",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return a.control().Show(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "hide",
			Short: "Hide the application",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return a.control().Hide(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "exit [code]",
			Short: "Ask the host to exit",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				code := 0
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("parse exit code: %w", err)
					}
					code = n
				}
				return a.control().Exit(cmd.Context(), code)
			},
		},
		&cobra.Command{
			Use:   "relaunch",
			Short: "Ask the host to restart",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return a.control().Relaunch(cmd.Context()) },
		},
	)
	return cmd
}

func newDialogCmd(a *app) *cobra.Command {
	var (
		title    string
		kind     string
		folder   bool
		multiple bool
	)
	cmd := &cobra.Command{
		Use:   "dialog <message|ask|confirm|open|save> [text]",
		Short: "Show a host dialog and print the answer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := ""
			if len(args) == 2 {
				text = args[1]
			}

			msg := a.dialogs().Message().Kind(dialog.Kind(kind))
			file := a.dialogs().File()
			if title != "" {
				msg.Title(title)
				file.Title(title)
			}

			switch args[0] {
			case "message":
				return msg.Show(ctx, text)
			case "ask", "confirm":
				choose := msg.Ask
				if args[0] == "confirm" {
					choose = msg.Confirm
				}
				yes, err := choose(ctx, text)
				if err != nil {
					return err
				}
				return a.printer.Print(yes)
			case "open":
				var (
					paths []string
					err   error
				)
				switch {
				case multiple && folder:
					paths, err = file.PickFolders(ctx)
				case multiple:
					paths, err = file.PickFiles(ctx)
				default:
					var (
						path string
						ok   bool
					)
					if folder {
						path, ok, err = file.PickFolder(ctx)
					} else {
						path, ok, err = file.PickFile(ctx)
					}
					if ok {
						paths = []string{path}
					}
				}
				if err != nil {
					return err
				}
				return a.printer.Print(paths)
			case "save":
				path, ok, err := file.Save(ctx)
				if err != nil || !ok {
					return err
				}
				return a.printer.Print(path)
			default:
				return fmt.Errorf("unknown dialog %q", args[0])
			}
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Dialog title")
	cmd.Flags().StringVar(&kind, "kind", string(dialog.KindInfo), "Message kind: info, warning or error")
	cmd.Flags().BoolVar(&folder, "folder", false, "Pick folders instead of files")
	cmd.Flags().BoolVar(&multiple, "multiple", false, "Allow several selections")
	return cmd
}

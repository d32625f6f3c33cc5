package dialog

import (
	"context"
	"errors"
	"strings"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const (
	CmdOpen    = "plugin:dialog|open"
	CmdSave    = "plugin:dialog|save"
	CmdMessage = "plugin:dialog|message"
	CmdAsk     = "plugin:dialog|ask"
	CmdConfirm = "plugin:dialog|confirm"
)

// Client opens host dialogs.
type Client struct {
	bridge *bridge.Bridge
}

// New returns a dialog client bound to b.
func New(b *bridge.Bridge) *Client { return &Client{bridge: b} }

// Filter restricts a file dialog to some extensions, written without the dot.
type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

type fileOptions struct {
	DefaultPath *string  `json:"defaultPath,omitempty"`
	Filters     []Filter `json:"filters"`
	Title       *string  `json:"title,omitempty"`
	Directory   bool     `json:"directory"`
	Multiple    bool     `json:"multiple"`
	Recursive   bool     `json:"recursive"`
}

// FileDialog stages a file or folder picker. Pick methods do not modify
// the staged options, so one FileDialog may be shown repeatedly.
type FileDialog struct {
	bridge *bridge.Bridge
	opts   fileOptions
	err    error
}

// File starts a file dialog.
func (c *Client) File() *FileDialog {
	return &FileDialog{bridge: c.bridge, opts: fileOptions{Filters: []Filter{}}}
}

// DefaultPath sets the directory or file the dialog opens at.
func (d *FileDialog) DefaultPath(path string) *FileDialog {
	d.opts.DefaultPath = &path
	return d
}

// Title sets the dialog title.
func (d *FileDialog) Title(title string) *FileDialog {
	d.opts.Title = &title
	return d
}

// Recursive lets folder pickers return nested folders on platforms that
// support it.
func (d *FileDialog) Recursive(v bool) *FileDialog {
	d.opts.Recursive = v
	return d
}

// AddFilter appends an extension filter. Invalid filters are reported when
// the dialog is shown.
func (d *FileDialog) AddFilter(name string, extensions ...string) *FileDialog {
	if d.err == nil {
		d.err = validateFilter(name, extensions)
	}
	d.opts.Filters = append(d.opts.Filters, Filter{Name: name, Extensions: extensions})
	return d
}

func validateFilter(name string, extensions []string) error {
	if name == "" {
		return errs.Configuration("filters", "filter name is empty")
	}
	if len(extensions) == 0 {
		return errs.Configuration("filters", "filter %q has no extensions", name)
	}
	for _, ext := range extensions {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return errs.Configuration("filters", "filter %q: extension %q must be non-empty and dotless", name, ext)
		}
	}
	return nil
}

// PickFile asks for one file. ok is false when the user cancelled.
func (d *FileDialog) PickFile(ctx context.Context) (path string, ok bool, err error) {
	return d.single(ctx, false)
}

// PickFiles asks for any number of files. A nil slice means cancelled.
func (d *FileDialog) PickFiles(ctx context.Context) ([]string, error) {
	return d.open(ctx, false, true)
}

// PickFolder asks for one folder. ok is false when the user cancelled.
func (d *FileDialog) PickFolder(ctx context.Context) (path string, ok bool, err error) {
	return d.single(ctx, true)
}

// PickFolders asks for any number of folders. A nil slice means cancelled.
func (d *FileDialog) PickFolders(ctx context.Context) ([]string, error) {
	return d.open(ctx, true, true)
}

// Save asks for a destination path. ok is false when the user cancelled.
func (d *FileDialog) Save(ctx context.Context) (path string, ok bool, err error) {
	if d.err != nil {
		return "", false, d.err
	}
	raw, err := d.bridge.InvokeRaw(ctx, CmdSave, map[string]any{"options": d.opts})
	if err != nil {
		return "", false, err
	}
	if bridge.IsNull(raw) {
		return "", false, nil
	}
	var p pathEntry
	if err := bridge.Decode(raw, &p); err != nil {
		return "", false, &errs.SerializationError{Op: CmdSave, Err: err}
	}
	return string(p), true, nil
}

func (d *FileDialog) single(ctx context.Context, directory bool) (string, bool, error) {
	paths, err := d.open(ctx, directory, false)
	if err != nil || paths == nil {
		return "", false, err
	}
	return paths[0], true, nil
}

func (d *FileDialog) open(ctx context.Context, directory, multiple bool) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	opts := d.opts
	opts.Directory = directory
	opts.Multiple = multiple

	raw, err := d.bridge.InvokeRaw(ctx, CmdOpen, map[string]any{"options": opts})
	if err != nil {
		return nil, err
	}
	if bridge.IsNull(raw) {
		return nil, nil
	}
	if !multiple {
		var p pathEntry
		if err := bridge.Decode(raw, &p); err != nil {
			return nil, &errs.SerializationError{Op: CmdOpen, Err: err}
		}
		return []string{string(p)}, nil
	}
	var entries []pathEntry
	if err := bridge.Decode(raw, &entries); err != nil {
		return nil, &errs.SerializationError{Op: CmdOpen, Err: err}
	}
	out := make([]string, len(entries))
	for i, p := range entries {
		out[i] = string(p)
	}
	return out, nil
}

// pathEntry accepts a bare path or a {"path": ...} object.
type pathEntry string

func (p *pathEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := bridge.Decode(data, &s); err == nil {
		*p = pathEntry(s)
		return nil
	}
	var obj struct {
		Path *string `json:"path"`
	}
	if err := bridge.Decode(data, &obj); err != nil {
		return err
	}
	if obj.Path == nil {
		return errors.New("path entry has no path")
	}
	*p = pathEntry(*obj.Path)
	return nil
}

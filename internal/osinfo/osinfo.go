package osinfo

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const (
	CmdArch         = "plugin:os|arch"
	CmdPlatform     = "plugin:os|platform"
	CmdFamily       = "plugin:os|family"
	CmdKind         = "plugin:os|os_type"
	CmdVersion      = "plugin:os|version"
	CmdLocale       = "plugin:os|locale"
	CmdExeExtension = "plugin:os|exe_extension"
	CmdHostname     = "plugin:os|hostname"
)

// Arch is the host CPU architecture.
type Arch string

const (
	ArchX86       Arch = "x86"
	ArchX86_64    Arch = "x86_64"
	ArchArm       Arch = "arm"
	ArchAarch64   Arch = "aarch64"
	ArchMips      Arch = "mips"
	ArchMips64    Arch = "mips64"
	ArchPowerpc   Arch = "powerpc"
	ArchPowerpc64 Arch = "powerpc64"
	ArchRiscv64   Arch = "riscv64"
	ArchS390x     Arch = "s390x"
	ArchSparc64   Arch = "sparc64"
)

// Platform is the host operating system.
type Platform string

const (
	PlatformLinux     Platform = "linux"
	PlatformMacos     Platform = "macos"
	PlatformIos       Platform = "ios"
	PlatformFreebsd   Platform = "freebsd"
	PlatformDragonfly Platform = "dragonfly"
	PlatformNetbsd    Platform = "netbsd"
	PlatformOpenbsd   Platform = "openbsd"
	PlatformSolaris   Platform = "solaris"
	PlatformAndroid   Platform = "android"
	PlatformWindows   Platform = "windows"
)

// OsKind is the broad OS type.
type OsKind string

const (
	KindLinux   OsKind = "linux"
	KindMacos   OsKind = "macos"
	KindWindows OsKind = "windows"
	KindIos     OsKind = "ios"
	KindAndroid OsKind = "android"
)

// Family is the OS family.
type Family string

const (
	FamilyUnix    Family = "unix"
	FamilyWindows Family = "windows"
)

var (
	arches = set(ArchX86, ArchX86_64, ArchArm, ArchAarch64, ArchMips, ArchMips64,
		ArchPowerpc, ArchPowerpc64, ArchRiscv64, ArchS390x, ArchSparc64)
	platforms = set(PlatformLinux, PlatformMacos, PlatformIos, PlatformFreebsd,
		PlatformDragonfly, PlatformNetbsd, PlatformOpenbsd, PlatformSolaris,
		PlatformAndroid, PlatformWindows)
	kinds    = set(KindLinux, KindMacos, KindWindows, KindIos, KindAndroid)
	families = set(FamilyUnix, FamilyWindows)
)

func set[T comparable](values ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// Client queries facts about the host operating system.
type Client struct {
	bridge *bridge.Bridge
}

// New returns an OS info client bound to b.
func New(b *bridge.Bridge) *Client { return &Client{bridge: b} }

// Arch returns the CPU architecture.
func (c *Client) Arch(ctx context.Context) (Arch, error) {
	return enum(ctx, c.bridge, CmdArch, arches)
}

// Platform returns the operating system name.
func (c *Client) Platform(ctx context.Context) (Platform, error) {
	return enum(ctx, c.bridge, CmdPlatform, platforms)
}

// Kind returns the OS kind.
func (c *Client) Kind(ctx context.Context) (OsKind, error) {
	return enum(ctx, c.bridge, CmdKind, kinds)
}

// Family returns the OS family.
func (c *Client) Family(ctx context.Context) (Family, error) {
	return enum(ctx, c.bridge, CmdFamily, families)
}

// Version returns the OS version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	return bridge.Call[string](ctx, c.bridge, CmdVersion, nil)
}

// Locale returns the BCP-47 locale, or "" with ok false when the host has none.
func (c *Client) Locale(ctx context.Context) (locale string, ok bool, err error) {
	raw, err := c.bridge.InvokeRaw(ctx, CmdLocale, nil)
	if err != nil {
		return "", false, err
	}
	if bridge.IsNull(raw) {
		return "", false, nil
	}
	if err := bridge.Decode(raw, &locale); err != nil {
		return "", false, &errs.SerializationError{Op: CmdLocale, Err: err}
	}
	return locale, true, nil
}

// ExeExtension returns the executable suffix without a dot, "" on unix.
func (c *Client) ExeExtension(ctx context.Context) (string, error) {
	return bridge.Call[string](ctx, c.bridge, CmdExeExtension, nil)
}

// Hostname returns the machine host name.
func (c *Client) Hostname(ctx context.Context) (string, error) {
	return bridge.Call[string](ctx, c.bridge, CmdHostname, nil)
}

func enum[T ~string](ctx context.Context, b *bridge.Bridge, cmd string, known map[T]struct{}) (T, error) {
	v, err := bridge.Call[T](ctx, b, cmd, nil)
	if err != nil {
		return "", err
	}
	if _, ok := known[v]; !ok {
		return "", &errs.SerializationError{Op: cmd, Err: fmt.Errorf("unknown value %q", string(v))}
	}
	return v, nil
}

// Info is every OS fact at once.
type Info struct {
	Arch         Arch     `json:"arch" yaml:"arch"`
	Platform     Platform `json:"platform" yaml:"platform"`
	Kind         OsKind   `json:"kind" yaml:"kind"`
	Family       Family   `json:"family" yaml:"family"`
	Version      string   `json:"version" yaml:"version"`
	Locale       *string  `json:"locale" yaml:"locale"`
	ExeExtension string   `json:"exeExtension" yaml:"exeExtension"`
	Hostname     string   `json:"hostname" yaml:"hostname"`
}

// Collect runs every query in turn and stops at the first failure.
func (c *Client) Collect(ctx context.Context) (Info, error) {
	var (
		info Info
		err  error
	)
	if info.Arch, err = c.Arch(ctx); err != nil {
		return Info{}, err
	}
	if info.Platform, err = c.Platform(ctx); err != nil {
		return Info{}, err
	}
	if info.Kind, err = c.Kind(ctx); err != nil {
		return Info{}, err
	}
	if info.Family, err = c.Family(ctx); err != nil {
		return Info{}, err
	}
	if info.Version, err = c.Version(ctx); err != nil {
		return Info{}, err
	}
	locale, ok, err := c.Locale(ctx)
	if err != nil {
		return Info{}, err
	}
	if ok {
		info.Locale = &locale
	}
	if info.ExeExtension, err = c.ExeExtension(ctx); err != nil {
		return Info{}, err
	}
	if info.Hostname, err = c.Hostname(ctx); err != nil {
		return Info{}, err
	}
	return info, nil
}

package osinfo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/osinfo"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
	"github.com/GriffinCanCode/hostwin/internal/simhost"
	"github.com/GriffinCanCode/hostwin/internal/testutil"
)

func newSim(t *testing.T, info simhost.OSInfo) *osinfo.Client {
	t.Helper()
	b := bridge.New(simhost.NewTransport(simhost.New(simhost.Options{OS: info})))
	t.Cleanup(func() { _ = b.Close() })
	return osinfo.New(b)
}

func TestCollect(t *testing.T) {
	locale := "en-GB"
	c := newSim(t, simhost.OSInfo{
		Arch:         "aarch64",
		Platform:     "macos",
		Version:      "14.4.1",
		Locale:       &locale,
		Hostname:     "studio",
		ExeExtension: "",
	})

	info, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, osinfo.ArchAarch64, info.Arch)
	assert.Equal(t, osinfo.PlatformMacos, info.Platform)
	assert.Equal(t, osinfo.KindMacos, info.Kind)
	assert.Equal(t, osinfo.FamilyUnix, info.Family)
	assert.Equal(t, "14.4.1", info.Version)
	require.NotNil(t, info.Locale)
	assert.Equal(t, "en-GB", *info.Locale)
	assert.Equal(t, "", info.ExeExtension)
	assert.Equal(t, "studio", info.Hostname)
}

func TestWindowsHost(t *testing.T) {
	c := newSim(t, simhost.OSInfo{Arch: "x86_64", Platform: "windows", Hostname: "pc"})
	ctx := context.Background()

	family, err := c.Family(ctx)
	require.NoError(t, err)
	assert.Equal(t, osinfo.FamilyWindows, family)

	ext, err := c.ExeExtension(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exe", ext)

	_, ok, err := c.Locale(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownEnumValues(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, osinfo.CmdArch, mock.Anything).Return(`"vax"`, nil).Once()
	tr.On("Call", mock.Anything, osinfo.CmdFamily, mock.Anything).Return(`"/usr/lib"`, nil).Once()
	tr.On("Call", mock.Anything, osinfo.CmdHostname, mock.Anything).Return(`null`, nil).Once()
	c := osinfo.New(bridge.New(tr))
	ctx := context.Background()

	_, err := c.Arch(ctx)
	assert.True(t, errs.IsSerialization(err))

	_, err = c.Family(ctx)
	assert.True(t, errs.IsSerialization(err))

	_, err = c.Hostname(ctx)
	assert.ErrorIs(t, err, bridge.ErrEmptyResult)
}

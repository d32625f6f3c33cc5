package dialog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/dialog"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
	"github.com/GriffinCanCode/hostwin/internal/simhost"
	"github.com/GriffinCanCode/hostwin/internal/testutil"
)

func newSim(t *testing.T) (*simhost.Host, *dialog.Client) {
	t.Helper()
	h := simhost.New(simhost.Options{})
	b := bridge.New(simhost.NewTransport(h))
	t.Cleanup(func() { _ = b.Close() })
	return h, dialog.New(b)
}

func TestPickFile(t *testing.T) {
	h, c := newSim(t)
	ctx := context.Background()

	// cancelled
	_, ok, err := c.File().PickFile(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.QueueDialogResponse("open", map[string]string{"path": "/tmp/a.txt"}))
	path, ok, err := c.File().
		Title("Open").
		DefaultPath("/tmp").
		AddFilter("Text", "txt", "md").
		PickFile(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/a.txt", path)

	reqs := h.DialogRequests()
	require.Len(t, reqs, 2)
	assert.JSONEq(t, `{"options":{
		"defaultPath":"/tmp","title":"Open",
		"filters":[{"name":"Text","extensions":["txt","md"]}],
		"directory":false,"multiple":false,"recursive":false}}`, string(reqs[1].Args))
}

func TestPickMany(t *testing.T) {
	h, c := newSim(t)
	ctx := context.Background()

	require.NoError(t, h.QueueDialogResponse("open", []any{map[string]string{"path": "/a"}, "/b"}))
	files, err := c.File().PickFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, files)

	require.NoError(t, h.QueueDialogResponse("open", []string{"/src", "/src/pkg"}))
	folders, err := c.File().Recursive(true).PickFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src", "/src/pkg"}, folders)

	var last struct {
		Options struct {
			Directory bool `json:"directory"`
			Multiple  bool `json:"multiple"`
			Recursive bool `json:"recursive"`
		} `json:"options"`
	}
	reqs := h.DialogRequests()
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Args, &last))
	assert.True(t, last.Options.Directory)
	assert.True(t, last.Options.Multiple)
	assert.True(t, last.Options.Recursive)

	folders, err = c.File().PickFolders(ctx)
	require.NoError(t, err)
	assert.Nil(t, folders)
}

func TestPickFolderAndSave(t *testing.T) {
	h, c := newSim(t)
	ctx := context.Background()

	require.NoError(t, h.QueueDialogResponse("open", "/home"))
	dir, ok, err := c.File().PickFolder(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/home", dir)

	require.NoError(t, h.QueueDialogResponse("save", "/tmp/out.json"))
	path, ok, err := c.File().Save(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/out.json", path)

	_, ok, err = c.File().Save(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidFilter(t *testing.T) {
	_, c := newSim(t)
	ctx := context.Background()

	_, _, err := c.File().AddFilter("Images", ".png").PickFile(ctx)
	assert.True(t, errs.IsConfiguration(err))
	_, _, err = c.File().AddFilter("", "png").Save(ctx)
	assert.True(t, errs.IsConfiguration(err))
	_, err = c.File().AddFilter("Empty").PickFiles(ctx)
	assert.True(t, errs.IsConfiguration(err))
}

func TestMessageDialogs(t *testing.T) {
	h, c := newSim(t)
	ctx := context.Background()

	require.NoError(t, c.Message().Title("Note").Show(ctx, "saved"))

	yes, err := c.Message().Ask(ctx, "continue?")
	require.NoError(t, err)
	assert.False(t, yes)

	require.NoError(t, h.QueueDialogResponse("confirm", true))
	ok, err := c.Message().
		Kind(dialog.KindWarning).
		OkLabel("Delete").
		CancelLabel("Keep").
		Confirm(ctx, "delete file?")
	require.NoError(t, err)
	assert.True(t, ok)

	reqs := h.DialogRequests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "confirm", reqs[2].Command)
	assert.JSONEq(t, `{"message":"delete file?","options":{"type":"warning","okLabel":"Delete","cancelLabel":"Keep"}}`,
		string(reqs[2].Args))

	assert.True(t, errs.IsConfiguration(c.Message().Kind("question").Show(ctx, "x")))
}

func TestAskFailsClosed(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, dialog.CmdAsk, mock.Anything).Return(`null`, nil).Once()
	tr.On("Call", mock.Anything, dialog.CmdOpen, mock.Anything).Return(`{"name":"x"}`, nil).Once()
	c := dialog.New(bridge.New(tr))
	ctx := context.Background()

	_, err := c.Message().Ask(ctx, "sure?")
	assert.ErrorIs(t, err, bridge.ErrEmptyResult)

	_, _, err = c.File().PickFile(ctx)
	assert.True(t, errs.IsSerialization(err))
}

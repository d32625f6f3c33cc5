package window

import (
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// maxIconBytes bounds what is shipped over the bridge in one call.
const maxIconBytes = 4 << 20

var iconTypes = []string{
	"image/png",
	"image/x-icon",
	"image/vnd.microsoft.icon",
	"image/jpeg",
	"image/gif",
	"image/bmp",
}

// ValidateIcon checks that data is a non-empty image in a format hosts decode.
func ValidateIcon(data []byte) error {
	if len(data) == 0 {
		return errs.Configuration("icon", "icon is empty")
	}
	if len(data) > maxIconBytes {
		return errs.Configuration("icon", "icon is %d bytes, limit is %d", len(data), maxIconBytes)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), iconTypes...) {
		return errs.Configuration("icon", "unsupported icon format %s", mt.String())
	}
	return nil
}

// iconBytes encodes as a JSON array of numbers rather than base64.
type iconBytes []byte

func (b iconBytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, len(b)*4+2)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

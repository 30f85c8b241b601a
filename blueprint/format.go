package blueprint

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"golang.org/x/text/cases"
)

// lastFormat is the highest gputypes.TextureFormat value.
const lastFormat = gputypes.TextureFormatASTC12x12UnormSrgb

var formatsByName = func() map[string]gputypes.TextureFormat {
	fold := cases.Fold()
	m := make(map[string]gputypes.TextureFormat)
	for f := gputypes.TextureFormatUndefined + 1; f <= lastFormat; f++ {
		name := f.String()
		if name == "Unknown" {
			continue
		}
		m[fold.String(name)] = f
	}
	return m
}()

// ParseFormat resolves a texture format name such as "RGBA16Float" or
// "rgba16float". Matching ignores case.
func ParseFormat(name string) (gputypes.TextureFormat, error) {
	key := cases.Fold().String(strings.TrimSpace(name))
	if f, ok := formatsByName[key]; ok {
		return f, nil
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

package figure

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Font sizes in points.
const (
	TickSize  = 10.0
	LabelSize = 12.0
	TextSize  = 12.0
)

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
)

// LoadFont parses the embedded Go Regular face once per process. The
// returned source is shared by every figure.
func LoadFont() (*text.FontSource, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewFontSource(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("load font: %w", fontErr)
		}
	})
	return fontSource, fontErr
}

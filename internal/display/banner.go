package display

import (
	"fmt"
	"io"

	"github.com/backmassage/candplot/internal/term"
)

const banner = `                     _       _       _
  ___ __ _ _ __   __| |_ __ | | ___ | |_
 / __/ _` + "`" + ` | '_ \ / _` + "`" + ` | '_ \| |/ _ \| __|
| (_| (_| | | | | (_| | |_) | | (_) | |_
 \___\__,_|_| |_|\__,_| .__/|_|\___/ \__|
                      |_|`

// PrintBanner prints the ASCII art banner in magenta when colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprintln(w, term.Magenta.Render(banner))
	fmt.Fprintln(w, "  candidate plotter v"+version)
	fmt.Fprintln(w)
}

package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Psrcat queries the ATNF pulsar catalogue through the psrcat binary.
type Psrcat struct {
	// Bin is the executable name or path. Empty means "psrcat".
	Bin string
}

func (p Psrcat) bin() string {
	if p.Bin == "" {
		return "psrcat"
	}
	return p.Bin
}

// Available reports whether the binary can be found.
func (p Psrcat) Available() bool {
	_, err := exec.LookPath(p.bin())
	return err == nil
}

// ExpectedDM runs `psrcat -c dm -o short -nohead -nonumber <source>` and
// parses the single value it prints.
func (p Psrcat) ExpectedDM(ctx context.Context, source string) (float64, error) {
	bin, err := exec.LookPath(p.bin())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	name := NormalizeName(source)
	cmd := exec.CommandContext(ctx, bin, "-c", "dm", "-o", "short", "-nohead", "-nonumber", name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("%w: psrcat %q: %v", ErrUnavailable, name, err)
	}
	dm, err := ParsePsrcat(out)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return dm, nil
}

// ParsePsrcat extracts the DM from psrcat short output. Exported for testing
// without the binary.
//
// A missing pulsar produces a "not in catalogue" warning; a pulsar without a
// DM entry prints "*".
func ParsePsrcat(out []byte) (float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "not in catalogue") || strings.HasPrefix(lower, "warning") {
			return 0, ErrNotFound
		}
		fields := strings.Fields(line)
		if fields[0] == "*" {
			return 0, ErrNotFound
		}
		dm, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: unexpected psrcat output %q", ErrUnavailable, line)
		}
		return dm, nil
	}
	return 0, ErrNotFound
}

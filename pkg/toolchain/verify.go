package toolchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/matter-labs/zksync-os-scripts/pkg/shell"
	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

// Verify checks the local tools against a release's pins. A tool missing
// from PATH fails the check; a version that drifted from its pin only
// warns.
func Verify(ctx context.Context, sh *shell.Shell, log *telemetry.Logger, pins Pins) error {
	var missing []string

	for _, tool := range pins.ToolNames() {
		want := pins.Tools[tool]

		if !shell.Available(tool) {
			missing = append(missing, tool)
			continue
		}

		if want == "" {
			log.Debugf("%s present (no pin)", tool)
			continue
		}

		got, err := sh.CommandVersion(ctx, tool)
		if err != nil {
			log.WithError(err).Warnf("Could not determine %s version", tool)
			continue
		}

		if !matchesPin(got, want) {
			log.Warnf("%s version %s differs from pinned %s", tool, got, want)
		} else {
			log.Debugf("%s %s ok", tool, got)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
	return nil
}

// matchesPin reports whether got satisfies the pinned version: every
// component of the pin must equal the corresponding leading component of
// got. Pin 1.3 accepts 1.3.6 but not 1.31.0.
func matchesPin(got, want string) bool {
	gotParts := strings.Split(got, ".")
	wantParts := strings.Split(want, ".")
	if len(gotParts) < len(wantParts) {
		return false
	}
	for i := range wantParts {
		if gotParts[i] != wantParts[i] {
			return false
		}
	}
	return true
}

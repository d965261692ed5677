package agent

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// LocalDevice describes the host the agent runs on. A terminal has no
// screen size, so those fields stay zero.
func LocalDevice(version string) domain.DeviceInfo {
	lang := os.Getenv("LANG")
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	return domain.DeviceInfo{
		UserAgent:  fmt.Sprintf("marketplace-session-agent/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH),
		Platform:   runtime.GOOS,
		Language:   strings.ReplaceAll(lang, "_", "-"),
		Timezone:   time.Local.String(),
		DeviceType: "desktop",
	}
}

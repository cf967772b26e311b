package types

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ContextUserKey is where the auth middleware stores the resolved user
// in the gin context.
const ContextUserKey = "user"

// Local storefront (vite dev server) and local API host.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// AllowedOrigins resolves the CORS / websocket origin allowlist from
// CLIENT_URL and ALLOWED_ORIGINS. Resolved per call, not at package
// init, so it sees values loaded from .env.
func AllowedOrigins() []string {
	origins := make([]string, len(devOrigins))
	copy(origins, devOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}

// ServiceFee reads the flat per-order fee from SERVICE_FEE, in minor
// currency units. Unset means no fee.
func ServiceFee() (int64, error) {
	raw := os.Getenv("SERVICE_FEE")
	if raw == "" {
		return 0, nil
	}

	fee, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || fee < 0 {
		return 0, fmt.Errorf("invalid SERVICE_FEE %q", raw)
	}

	return fee, nil
}

package instance

import "github.com/angelmondragon/module-swap/pkg/env"

const fallbackID = "module-swap-0"

// GetID returns the process instance identifier. MODULESWAP_INSTANCE_ID wins
// over HOSTNAME.
func GetID() string {
	if id := env.Get("MODULESWAP_INSTANCE_ID", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", fallbackID)
}

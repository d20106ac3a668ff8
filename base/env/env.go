package env

import (
	"os"
)

// Debug reports whether verbose development logging is requested.
// Set NFTSCAN_DEBUG to any non-empty value to enable.
func Debug() bool {
	return os.Getenv("NFTSCAN_DEBUG") != ""
}

// AppName example: nftscan-cli
func AppName() string {
	return os.Getenv("APP_NAME")
}

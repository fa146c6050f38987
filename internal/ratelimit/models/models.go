package models

import (
	"strings"
	"time"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when Allowed is false
}

// KeyPrefixIP namespaces per-client-IP buckets.
const KeyPrefixIP = "ip"

// NewIPKey builds the bucket key for a client IP.
func NewIPKey(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return KeyPrefixIP + ":" + ip
}

// Package models contains the data structures used throughout gorouter-reset.
package models

import "time"

// ResetConfig holds the complete configuration for a reset run.
type ResetConfig struct {
	Router     RouterConfig
	Lookup     LookupConfig
	Timing     TimingSettings
	SSHRestart *SSHRestartConfig // nil if not configured
	Telegram   *TelegramConfig   // nil if not configured
	LogDir     string            // optional, daily log file location
}

// RouterConfig holds the router admin interface credentials.
type RouterConfig struct {
	Address  string // LAN address of the router, e.g. 192.168.1.1
	Username string
	Password string
	Timeout  time.Duration // per-request HTTP timeout
}

// LookupConfig holds public IP lookup settings.
type LookupConfig struct {
	URL     string // lookup endpoint returning {"ip": "<addr>"}
	Timeout time.Duration
}

// TimingSettings holds the fixed waits between disruptive actions and
// re-checking the public IP.
type TimingSettings struct {
	DisconnectWait time.Duration // after POST /connection/disconnect
	ReconnectWait  time.Duration // after POST /connection/connect
	RestartWait    time.Duration // after restart, before re-checking
}

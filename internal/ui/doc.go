// Package ui holds the terminal presentation pieces shared by the dashboard
// and the one-shot CLI commands: the color palette, status symbols, table
// helpers and NodeRow, the per-node view model.
//
// NodeRow turns a node snapshot into display strings once, so every renderer
// agrees on formatting:
//
//	CPU         shortened to 25 characters
//	User agent  shortened to 15 characters
//	Memory      "Memory Free: 7.81 / 31.25 GB"
//	Hashrate    "<value> (10s)", "(1m)", "(15m)"
//	Shares      "Blocks or Shares: good/total"
//	Avg time    human-readable duration
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - node online
//	ColorError     (red)    - node offline
//	ColorWarning   (yellow) - notices
//	ColorMuted     (gray)   - never refreshed, stale values
//
// Lip Gloss honors the active termenv color profile, so --no-color strips
// every style.
package ui

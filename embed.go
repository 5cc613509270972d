package textbulker

import "embed"

// EmbeddedAssets contains the admin stylesheet served under /public/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

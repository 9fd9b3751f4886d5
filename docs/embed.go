// Copyright © 2024 The LISPC authors

// Package docs embeds the language reference for use by the CLI.
package docs

import _ "embed"

//go:embed lang.md
var LangGuide string

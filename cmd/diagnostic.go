// Copyright © 2024 The LISPC authors

package cmd

import (
	"io"

	"github.com/spf13/viper"

	"github.com/luthersystems/lispc/diagnostic"
)

func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(viper.GetString("color"))
	if err != nil {
		newLogger().WithError(err).Warn("falling back to automatic color")
	}
	return mode
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// renderError writes err to w as an annotated source snippet.  Errors
// without a source location render as a plain message.
func renderError(w io.Writer, r *diagnostic.Renderer, err error) {
	_ = r.Render(w, diagnostic.FromError(err))
}

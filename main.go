// Copyright © 2024 The LISPC authors

package main

import "github.com/luthersystems/lispc/cmd"

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "codecoach"}

	root.AddCommand(serveCMD(), seedCMD())
	_ = root.Execute()
}

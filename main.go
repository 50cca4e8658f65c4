package main

import (
	"os"

	"github.com/MagicDippyEgg/random-images-daily/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

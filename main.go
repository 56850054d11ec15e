package main

import (
	"github.com/retroprint/labelforge/cmd"
)

func main() {
	cmd.Execute()
}

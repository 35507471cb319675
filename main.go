package main

import (
	"github.com/maxgio92/tracey/pkg/cmd"
)

func main() {
	cmd.Execute()
}

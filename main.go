package main

import (
	"tokenwatch/internal/cli"
)

func main() {
	cli.Execute()
}

package main

import (
	"github.com/wolfcubecho/quil-monitor/internal/cli"
)

func main() {
	cli.Execute()
}

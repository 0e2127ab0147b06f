package main

import (
	"github.com/mchmarny/pepsig/pkg/cli"
)

func main() {
	cli.Execute()
}

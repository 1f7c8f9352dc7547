package main

import (
	"github.com/rentwatch/ractl/pkg/cli"
)

func main() {
	cli.Execute()
}

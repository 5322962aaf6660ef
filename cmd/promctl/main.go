package main

import (
	"github.com/soltown/promenade/internal/cli"
)

func main() {
	cli.Execute()
}

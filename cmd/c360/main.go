package main

import (
	"consumption-analytics/internal/cli"
)

func main() {
	cli.Execute()
}

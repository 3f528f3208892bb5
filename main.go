package main

import (
	"github.com/alexmiron/podium/cmd"
)

func main() {
	cmd.Execute()
}

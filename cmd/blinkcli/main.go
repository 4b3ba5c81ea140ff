package main

import (
	"github.com/robotalks/beacon/pkg/cli/sh"
	env "github.com/robotalks/beacon/pkg/env/connector"

	_ "github.com/robotalks/beacon/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}

// Package all registers every command provider.
package all

import (
	_ "github.com/robotalks/beacon/pkg/cli/cmds/pattern"
)

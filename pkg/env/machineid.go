// Package env holds what the host tools share about the machine they run
// on.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine. The host name
// is used where the platform has no machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID("beacon")
	if err == nil {
		return id[:12]
	}
	glog.V(1).Infof("machine id: %v", err)
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "local"
}

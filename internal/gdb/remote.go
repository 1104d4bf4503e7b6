package gdb

import (
	"fmt"
	"net"
	"strconv"
)

// RemoteTarget addresses a remote debug stub: either host:port over TCP or a
// serial device path. BaudRate is a hint for serial targets only: String
// leaves it out of the target-select argument and nothing in this package
// sends it to GDB.
type RemoteTarget struct {
	Host         string
	Port         int
	SerialDevice string
	BaudRate     int
}

// TCPTarget builds a TCP remote target.
func TCPTarget(host string, port int) RemoteTarget {
	return RemoteTarget{Host: host, Port: port}
}

// SerialTarget builds a serial remote target.
func SerialTarget(device string, baudRate int) RemoteTarget {
	return RemoteTarget{SerialDevice: device, BaudRate: baudRate}
}

// String renders the target the way target-select expects it.
func (t RemoteTarget) String() string {
	if t.SerialDevice != "" {
		return t.SerialDevice
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Validate rejects targets that name neither a TCP endpoint nor a device.
func (t RemoteTarget) Validate() error {
	if t.SerialDevice != "" {
		return nil
	}
	if t.Host == "" || t.Port <= 0 || t.Port > 65535 {
		return fmt.Errorf("remote target needs host and port, or a serial device")
	}
	return nil
}

// Package validation checks user-supplied debugger inputs before they are
// spliced into MI commands.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// hexAddrRegex matches a 0x-prefixed address
	hexAddrRegex = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

	// archRegex matches architecture names as GDB spells them
	// (e.g. arm, aarch64, riscv:rv32, i386:x86-64)
	archRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

	// registerRegex matches register names (pc, x0, r15, cpsr)
	registerRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

	// hexDataRegex matches an even-length hex byte string
	hexDataRegex = regexp.MustCompile(`^(?:[0-9a-fA-F]{2})+$`)

	// hostPortRegex matches host:port remote targets
	hostPortRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+:\d{1,5}$`)
)

// ValidateAddress checks a memory address argument.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if !hexAddrRegex.MatchString(addr) {
		return fmt.Errorf("invalid address (want 0x-prefixed hex): %s", addr)
	}
	return nil
}

// ValidateHexData checks a hex byte string for memory writes.
func ValidateHexData(data string) error {
	if data == "" {
		return fmt.Errorf("data cannot be empty")
	}
	if !hexDataRegex.MatchString(data) {
		return fmt.Errorf("invalid hex data (want an even number of hex digits): %s", data)
	}
	return nil
}

// ValidateArchitecture checks an architecture name.
func ValidateArchitecture(arch string) error {
	if arch == "" {
		return fmt.Errorf("architecture cannot be empty")
	}
	if !archRegex.MatchString(arch) {
		return fmt.Errorf("invalid architecture name: %s", arch)
	}
	return nil
}

// ValidateRegister checks a register name for gdb-set $REG=VALUE.
func ValidateRegister(register string) error {
	if register == "" {
		return fmt.Errorf("register cannot be empty")
	}
	if !registerRegex.MatchString(register) {
		return fmt.Errorf("invalid register name: %s", register)
	}
	return nil
}

// ValidateLocation checks a breakpoint location: a function name, file:line
// or *address. The grammar is loose; the goal is to keep newlines and MI
// metacharacters out of the command line.
func ValidateLocation(location string) error {
	if location == "" {
		return fmt.Errorf("location cannot be empty")
	}
	if strings.ContainsAny(location, "\n\r\"") {
		return fmt.Errorf("invalid location: %s", location)
	}
	if strings.HasPrefix(location, "*") {
		return ValidateAddress(location[1:])
	}
	return nil
}

// ValidateRemoteTarget checks a TCP host:port or serial device path.
func ValidateRemoteTarget(target string) error {
	if target == "" {
		return fmt.Errorf("remote target cannot be empty")
	}
	if strings.HasPrefix(target, "/dev/") {
		return nil
	}
	if !hostPortRegex.MatchString(target) {
		return fmt.Errorf("invalid remote target (want host:port or /dev/...): %s", target)
	}
	return nil
}

// ValidateBreakpointNumber checks a breakpoint number argument. GDB also
// accepts ranges like 1-3 and sub-breakpoints like 2.1.
func ValidateBreakpointNumber(number string) error {
	if number == "" {
		return fmt.Errorf("breakpoint number cannot be empty")
	}
	for _, c := range number {
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			return fmt.Errorf("invalid breakpoint number: %s", number)
		}
	}
	return nil
}

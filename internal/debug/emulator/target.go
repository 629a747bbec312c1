//go:generate mockgen -source=target.go -destination=mock_emulator/mock_target.go -exclude_interfaces=Describer

// Package emulator defines the capability set a debugging server needs from
// an emulated target, and a flat-memory reference machine implementing it.
package emulator

import (
	semver "github.com/Masterminds/semver/v3"

	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

// APIIdentifier tags a capability table built for this server ("DBGZ").
const APIIdentifier uint32 = 0x4442475a

// SupportedVersions is the range of capability table versions the server accepts.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

var supportedConstraint = mustConstraint(SupportedVersions)

// Target is the instrumentation surface of an emulated machine. Memory is
// byte-addressable and registers are numbered and 32 bits wide; nothing else
// about the architecture is assumed.
type Target interface {
	FetchByte(addr uint32) uint8
	StoreByte(addr uint32, value uint8)

	FetchRegister(num uint32) uint32
	StoreRegister(num uint32, value uint32)

	AddBreakpoint(addr uint32)
	DelBreakpoint(addr uint32)
	ClearBreakpoints()
}

// API identifies the capability table an emulator exposes.
type API struct {
	Identifier uint32
	Version    string
}

// Describer is implemented by targets that advertise their API revision.
type Describer interface {
	API() API
}

// CheckAPI validates an advertised API against the supported identifier and
// version range.
func CheckAPI(api API) error {
	if api.Identifier != APIIdentifier {
		return emuerrors.IncompatibleAPI(api.Identifier, api.Version, "unknown API identifier")
	}
	v, err := semver.NewVersion(api.Version)
	if err != nil {
		return emuerrors.IncompatibleAPI(api.Identifier, api.Version, err.Error())
	}
	if ok, errs := supportedConstraint.Validate(v); !ok {
		reason := "outside " + SupportedVersions
		if len(errs) > 0 {
			reason = errs[0].Error()
		}
		return emuerrors.IncompatibleAPI(api.Identifier, api.Version, reason)
	}
	return nil
}

// CheckTarget runs CheckAPI when t describes itself. Targets without a
// descriptor are accepted as-is.
func CheckTarget(t Target) error {
	if d, ok := t.(Describer); ok {
		return CheckAPI(d.API())
	}
	return nil
}

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

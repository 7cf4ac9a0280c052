// Package export decides how each mesh is exported and produces container
// bytes for meshes routed to the binary glTF path.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned when parsing an unrecognized policy name.
var ErrUnknownPolicy = errors.New("unknown export policy")

// Policy selects the output representation for an export session.
type Policy int

const (
	// PolicyNative always uses the native per-asset serializer.
	PolicyNative Policy = iota
	// PolicyGlb always produces a binary container, dropping skin data.
	PolicyGlb
	// PolicyFbx produces a binary container for unskinned meshes and
	// delegates skinned meshes to the native serializer.
	PolicyFbx
)

// String returns the lowercase policy name.
func (p Policy) String() string {
	switch p {
	case PolicyNative:
		return "native"
	case PolicyGlb:
		return "glb"
	case PolicyFbx:
		return "fbx"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native":
		return PolicyNative, nil
	case "glb":
		return PolicyGlb, nil
	case "fbx":
		return PolicyFbx, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

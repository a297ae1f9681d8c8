package action

import (
	"fmt"
	"strings"
)

// Name returns the variant name, e.g. "StateUpdated".
func Name(a Action) string {
	if a == nil {
		return "nil"
	}
	name := fmt.Sprintf("%T", a)
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimPrefix(name, "*")
}

// Group returns the concern an action belongs to.
func Group(a Action) string {
	switch a.(type) {
	case CallingAction:
		return "calling"
	case LocalUserAction:
		return "localUser"
	case PermissionAction:
		return "permission"
	case LifecycleAction:
		return "lifecycle"
	case AudioSessionAction:
		return "audioSession"
	case ErrorAction:
		return "error"
	case CompositeExit, CallingViewLaunched:
		return "composite"
	default:
		return "unknown"
	}
}

package models

import "fmt"

// ResetMethod identifies which disruptive action was used to force an IP change.
type ResetMethod string

const (
	// MethodConnectionCycle disconnects and reconnects the cellular uplink
	// without rebooting the device.
	MethodConnectionCycle ResetMethod = "connection_cycle"
	// MethodRestart reboots the router device.
	MethodRestart ResetMethod = "restart"
)

// ResetResult holds the outcome of one reset attempt.
type ResetResult struct {
	Success bool
	OldIP   string // empty if the lookup before the attempt failed
	NewIP   string // empty if the lookup after the attempt failed
	Method  ResetMethod
	Error   error
}

// EvaluateIPChange builds a ResetResult out of the public IPs observed before
// and after a reset attempt. An attempt only counts as successful when both
// lookups returned a value and the values differ; a missing IP on either side
// is an error, so two failed lookups can never be read as a change.
func EvaluateIPChange(method ResetMethod, oldIP, newIP string) *ResetResult {
	result := &ResetResult{
		OldIP:  oldIP,
		NewIP:  newIP,
		Method: method,
	}

	switch {
	case oldIP == "" && newIP == "":
		result.Error = fmt.Errorf("public IP lookup failed before and after reset")
	case oldIP == "":
		result.Error = fmt.Errorf("public IP lookup failed before reset")
	case newIP == "":
		result.Error = fmt.Errorf("public IP lookup failed after reset")
	case oldIP == newIP:
		result.Error = fmt.Errorf("public IP unchanged (%s)", oldIP)
	default:
		result.Success = true
	}

	return result
}

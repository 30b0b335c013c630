package enums

import "fmt"

// GatewayName tags which settlement path an order travels through.
type GatewayName string

const (
	GatewayCashfree   GatewayName = "CASHFREE"
	GatewaySimulation GatewayName = "SIMULATION"
)

var validGatewayNames = []GatewayName{
	GatewayCashfree,
	GatewaySimulation,
}

// String implements fmt.Stringer.
func (g GatewayName) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayName.
func (g GatewayName) IsValid() bool {
	for _, candidate := range validGatewayNames {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayName converts raw input into a GatewayName.
func ParseGatewayName(value string) (GatewayName, error) {
	for _, candidate := range validGatewayNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway name %q", value)
}

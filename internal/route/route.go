package route

import "fmt"

const (
	RouteAuto    = "auto"
	RouteFast    = "fast"
	RouteGateway = "gateway"
	RouteBridge  = "bridge"
)

const (
	fastFeeRate    = 0.001
	gatewayFeeRate = 0.002
)

// fastCapable lists the chains that support native burn-and-mint transfers.
var fastCapable = map[string]bool{
	"ethereum":  true,
	"base":      true,
	"arbitrum":  true,
	"optimism":  true,
	"polygon":   true,
	"avalanche": true,
}

// Estimate is an advisory fee/ETA/step projection. Actual settlement still
// goes through the executor.
type Estimate struct {
	Route       string   `json:"route"`
	Explanation string   `json:"explanation"`
	ETA         string   `json:"eta"`
	Fee         float64  `json:"fee"`
	Steps       []string `json:"steps"`
}

// Select picks a settlement path for a transfer. An explicit non-"auto"
// preference is honored verbatim. It is a pure estimation function with no
// network calls.
func Select(sourceChain, destChain string, amount float64, preferred string) Estimate {
	if preferred != "" && preferred != RouteAuto {
		return estimateFor(preferred, sourceChain, destChain, amount)
	}
	if fastCapable[sourceChain] && fastCapable[destChain] {
		return estimateFor(RouteFast, sourceChain, destChain, amount)
	}
	return estimateFor(RouteGateway, sourceChain, destChain, amount)
}

func estimateFor(route, sourceChain, destChain string, amount float64) Estimate {
	switch route {
	case RouteFast:
		return Estimate{
			Route:       RouteFast,
			Explanation: fmt.Sprintf("native burn-and-mint transfer from %s to %s", sourceChain, destChain),
			ETA:         "~15 minutes",
			Fee:         amount * fastFeeRate,
			Steps:       []string{"burn", "attest", "mint"},
		}
	case RouteBridge:
		return Estimate{
			Route:       RouteBridge,
			Explanation: fmt.Sprintf("third-party bridge from %s to %s", sourceChain, destChain),
			ETA:         "~30 minutes",
			Fee:         amount * gatewayFeeRate,
			Steps:       []string{"lock", "prove", "release"},
		}
	default:
		return Estimate{
			Route:       RouteGateway,
			Explanation: fmt.Sprintf("gateway settlement from %s to %s", sourceChain, destChain),
			ETA:         "~30 minutes",
			Fee:         amount * gatewayFeeRate,
			Steps:       []string{"deposit", "verify", "release"},
		}
	}
}

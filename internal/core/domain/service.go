package domain

type ServiceID string
type ServiceClass string

const (
	// Service classes determine session TTL policy.
	// ClassHandshake services issue short-lived credentials per handshake.
	ClassHandshake ServiceClass = "handshake"
	ClassStandard  ServiceClass = "standard"
)

const (
	// Well-known tool services of the build loop.
	ServiceQuantConnect ServiceID = "quantconnect"
	ServiceLinear       ServiceID = "linear"
	ServiceMemory       ServiceID = "memory"
	ServiceThinking     ServiceID = "thinking"
	ServiceGithub       ServiceID = "github"
	ServiceKnowledge    ServiceID = "knowledge"
)

// DefaultServicePorts maps well-known services to their local ports.
var DefaultServicePorts = map[ServiceID]int{
	ServiceQuantConnect: 8000,
	ServiceLinear:       8001,
	ServiceMemory:       8002,
	ServiceThinking:     8003,
	ServiceGithub:       8004,
	ServiceKnowledge:    8005,
}

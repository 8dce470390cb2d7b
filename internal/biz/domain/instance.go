package domain

// ConnectionStatus is the remote-reported state of a WhatsApp instance.
type ConnectionStatus string

const (
	StatusClose      ConnectionStatus = "close"
	StatusOpen       ConnectionStatus = "open"
	StatusConnecting ConnectionStatus = "connecting"
)

// Integration selects the channel backing a new instance.
type Integration string

const (
	IntegrationBaileys  Integration = "WHATSAPP-BAILEYS"
	IntegrationBusiness Integration = "WHATSAPP-BUSINESS"
)

// WhatsAppInstance is one device/connection session managed by the remote
// API. All remote operations are keyed by Name, not ID.
type WhatsAppInstance struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Token            string           `json:"token,omitempty"`
	OwnerJID         string           `json:"ownerJid,omitempty"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	ProfilePicURL    string           `json:"profilePicUrl,omitempty"`
}

// Connected reports whether the instance has an open connection.
func (i WhatsAppInstance) Connected() bool {
	return i.ConnectionStatus == StatusOpen
}

// InstanceSettings is the flat set of behavior toggles owned by one
// instance. JSON keys match the remote /settings endpoints.
type InstanceSettings struct {
	RejectCall      bool   `json:"rejectCall"`
	MsgCall         string `json:"msgCall"`
	GroupsIgnore    bool   `json:"groupsIgnore"`
	AlwaysOnline    bool   `json:"alwaysOnline"`
	ReadMessages    bool   `json:"readMessages"`
	ReadStatus      bool   `json:"readStatus"`
	SyncFullHistory bool   `json:"syncFullHistory"`
	WavoipToken     string `json:"wavoipToken,omitempty"`
}

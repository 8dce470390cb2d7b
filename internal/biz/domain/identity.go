package domain

// Identity is the client identity under which sessions and agents are
// scoped. It is loaded from the local store at startup; callers decide
// explicitly what to do when none is stored.
type Identity struct {
	ClientID string `json:"client_id"`
}

// DefaultClientID is the documented fallback identity used when no client
// identifier has been stored locally.
const DefaultClientID = "teste"

// Valid reports whether the identity carries a usable client ID.
func (i Identity) Valid() bool {
	return i.ClientID != ""
}

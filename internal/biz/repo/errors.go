package repo

// RemoteError is a business-logic rejection from the remote API: the HTTP
// exchange completed but the body carried an error message. Message is the
// literal remote-authored string and is the only error text shown to users
// verbatim.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

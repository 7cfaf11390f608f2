package services

// Actor is the resolved caller identity. It is produced once at the gateway
// boundary by the auth middleware and passed explicitly into every engine and
// store call, never read from ambient request state.
type Actor struct {
	ID    int
	Name  string
	Email string
	Role  string
}

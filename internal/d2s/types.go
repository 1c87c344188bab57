package d2s

// User is the identity record returned by the current-user endpoint.
// It is fetched once during login and not persisted beyond the call
// that created it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// APIAccessToken is an optional per-user API key. The observed flows
	// store it but never attach it to requests; it is carried for callers
	// that want to hand it to other tools.
	APIAccessToken string `json:"api_access_token"`
}

package session

// Canonical storage keys for session credentials. These are the join key
// between stored secrets and session semantics — they must never change
// once deployed. The halcyon__ prefix namespaces them inside a shared
// platform keystore.
const (
	// KeyAccessToken holds the bearer token for the homeserver.
	KeyAccessToken = "halcyon__access_token"

	// KeyRefreshToken holds the optional refresh token. Not every
	// homeserver issues one; its absence is never an error.
	KeyRefreshToken = "halcyon__refresh_token"

	// KeyUserID holds the fully-qualified user identifier.
	KeyUserID = "halcyon__user_id"

	// KeyDeviceID holds this client's device identifier.
	KeyDeviceID = "halcyon__device_id"
)

// CredentialKeys returns every session credential key, for bulk operations
// such as logout cleanup.
func CredentialKeys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeyUserID, KeyDeviceID}
}

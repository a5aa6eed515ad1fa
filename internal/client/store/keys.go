package store

// Key names form the namespacing contract between components. Any component
// may read or write any key; the discipline is prefix conventions, not
// access control.
const (
	// Session manager, device scope.
	KeyPrimarySession   = "leirisonda_user"
	KeyLastUser         = "leirisonda_last_user"
	KeySessionTimestamp = "session_timestamp"
	BackupKeyPrefix     = "user_backup_"

	// Session manager, tab scope.
	KeyTabSession = "temp_user_session"

	// Credential store, device scope.
	KeyDynamicUsers     = "users"
	CredentialKeyPrefix = "password_"

	// Work-creation guard.
	KeyGuardFlag      = "just_created_work" // tab scope
	KeyGuardTimestamp = "work_created_timestamp"

	// Cross-context notification channel, written on every work creation.
	KeyLastSyncEvent = "leirisonda_last_sync_event"

	// Local work-record list.
	KeyWorks = "works"
)

// BackupKey returns the per-identity session backup key.
func BackupKey(userID string) string {
	return BackupKeyPrefix + userID
}

// CredentialKey returns one redundant credential key for the given
// identity facet (id, raw email, normalized email, ...).
func CredentialKey(facet string) string {
	return CredentialKeyPrefix + facet
}

//go:build darwin

package vault

func openPlatform(service string) (Store, error) {
	return NewKeychainStore(service)
}

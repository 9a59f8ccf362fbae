//go:build windows

package vault

func openPlatform(service string) (Store, error) {
	return NewCredManagerStore(service), nil
}

package session

import (
	"strings"
	"testing"
)

func TestCredentialKeysCoverAllKeys(t *testing.T) {
	keys := CredentialKeys()
	want := map[string]bool{
		KeyAccessToken:  false,
		KeyRefreshToken: false,
		KeyUserID:       false,
		KeyDeviceID:     false,
	}

	for _, k := range keys {
		if _, ok := want[k]; !ok {
			t.Errorf("unexpected credential key %q", k)
			continue
		}
		want[k] = true
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("credential key %q missing from CredentialKeys", k)
		}
	}
}

func TestCredentialKeysNamespaced(t *testing.T) {
	for _, k := range CredentialKeys() {
		if !strings.HasPrefix(k, "halcyon__") {
			t.Errorf("key %q lacks the halcyon__ namespace prefix", k)
		}
	}
}

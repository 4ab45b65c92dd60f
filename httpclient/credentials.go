package httpclient

import (
	"fmt"

	"github.com/breakwater-labs/breakwater/internal/validate"
	"github.com/breakwater-labs/breakwater/provider"
)

// SetCredentials stores a structural copy of cred under the provider name.
// Later mutation of the caller's value does not affect the stored copy.
func (c *Client) SetCredentials(name string, cred provider.Credential) error {
	if err := validate.Provider(name); err != nil {
		return err
	}
	if cred.IsZero() {
		return provider.NewValidationError("credential", "must not be empty")
	}

	c.credMu.Lock()
	c.creds[name] = cred.Clone()
	c.credMu.Unlock()
	return nil
}

// Credentials returns a structural copy of the stored credential. An unknown
// provider is an error, never a zero value: callers assume credentials exist
// once they ask for them. Mutating the returned copy does not affect the
// store or any other caller.
func (c *Client) Credentials(name string) (provider.Credential, error) {
	c.credMu.RLock()
	cred, ok := c.creds[name]
	c.credMu.RUnlock()

	if !ok {
		return provider.Credential{}, fmt.Errorf("%w: %q", provider.ErrNoCredentials, name)
	}
	return cred.Clone(), nil
}

// HasCredentials reports whether credentials are stored for the provider.
func (c *Client) HasCredentials(name string) bool {
	c.credMu.RLock()
	_, ok := c.creds[name]
	c.credMu.RUnlock()
	return ok
}

// RemoveCredentials deletes the stored credential and reports whether one
// existed.
func (c *Client) RemoveCredentials(name string) bool {
	c.credMu.Lock()
	_, ok := c.creds[name]
	delete(c.creds, name)
	c.credMu.Unlock()
	return ok
}

// ClearCredentials removes all stored credentials.
func (c *Client) ClearCredentials() {
	c.credMu.Lock()
	clear(c.creds)
	c.credMu.Unlock()
}

// credentialSecrets returns the secret values currently stored, for
// scrubbing transport errors that may embed them in URLs.
func (c *Client) credentialSecrets() []provider.Secret {
	c.credMu.RLock()
	defer c.credMu.RUnlock()

	secrets := make([]provider.Secret, 0, len(c.creds))
	for _, cred := range c.creds {
		if !cred.APIKey.IsEmpty() {
			secrets = append(secrets, cred.APIKey)
		}
	}
	return secrets
}

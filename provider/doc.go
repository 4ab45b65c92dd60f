// Package provider holds the types shared by every breakwater component.
//
// This package contains:
//   - The upstream error taxonomy (Error, Kind) and sentinel errors
//   - ValidationError for rejected inputs
//   - Credential and Secret for safe credential handling
//
// # Usage
//
//	import "github.com/breakwater-labs/breakwater/provider"
//
//	var perr *provider.Error
//	cred := provider.Credential{APIKey: provider.Secret("k-123")}
package provider

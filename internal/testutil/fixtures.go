package testutil

import "github.com/breakwater-labs/breakwater/provider"

// Test constants for consistent test data.
const (
	// TestProvider is a provider name for testing.
	TestProvider = "oracle"

	// TestAPIKey is an API key value for testing.
	TestAPIKey = "sk-test-0123456789abcdef"

	// TestRateKey is an endpoint rate-limit key for testing.
	TestRateKey = "oracle:prices"

	// TestSymbol is an asset symbol for testing.
	TestSymbol = "ETH"

	// TestPrice is a spot price for testing.
	TestPrice = 2514.31
)

// TestCredential returns a header-carried credential fixture.
func TestCredential() provider.Credential {
	return provider.Credential{
		APIKey:     provider.Secret(TestAPIKey),
		HeaderName: "X-API-Key",
	}
}

// TestBearerCredential returns a credential carried as an Authorization
// bearer token.
func TestBearerCredential() provider.Credential {
	return provider.Credential{
		APIKey: provider.Secret(TestAPIKey),
	}
}

// TestQueryCredential returns a credential carried as a URL query
// parameter.
func TestQueryCredential() provider.Credential {
	return provider.Credential{
		APIKey:     provider.Secret(TestAPIKey),
		QueryParam: "apikey",
	}
}

// TestQuote returns a spot price payload as the mock provider encodes it.
func TestQuote() map[string]any {
	return map[string]any{
		"symbol": TestSymbol,
		"price":  TestPrice,
	}
}

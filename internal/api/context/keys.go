package context

type Key string

const (
	Claims Key = "claims"
	Tenant Key = "tenant"
	APIKey Key = "api_key"
	Params Key = "params"
)

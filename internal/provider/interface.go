package provider

// DataProvider is the abstraction used by the application when accessing a data source.
// Implementations are responsible for their own internal fetch logic and resource cleanup.
type DataProvider interface {
	GetName() string
	Close() error
}

// Headers are the request headers sent to a provider. They are explicit
// configuration passed to each client, never package globals.
type Headers struct {
	UserAgent string
	Referer   string
	Accept    string
}

// Map returns the non-empty headers keyed by their HTTP name.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, 3)
	if h.UserAgent != "" {
		m["User-Agent"] = h.UserAgent
	}
	if h.Referer != "" {
		m["Referer"] = h.Referer
	}
	if h.Accept != "" {
		m["Accept"] = h.Accept
	}
	return m
}

package api

// Envelope is the decoded JSON body of a scan-API response. The servers
// follow a loose convention: a body may carry a boolean "success" key.
// When the key is absent the body is opaque data to be used as-is, when
// it is false the request has been rejected. Send implements that
// convention, so an Envelope returned from it is always a usable result.
type Envelope map[string]any

// String returns the value under key when it is a string.
func (e Envelope) String(key string) (string, bool) {
	s, ok := e[key].(string)
	return s, ok
}

// Map returns the value under key when it is an object.
func (e Envelope) Map(key string) (map[string]any, bool) {
	m, ok := e[key].(map[string]any)
	return m, ok
}

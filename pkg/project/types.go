// Package project defines the project data model and the process-wide
// atomically replaceable project state store.
package project

// Endpoint is a configured (method, path) -> (status, delay, body) mapping.
// Fields are set wholesale by the control boundary; the core never mutates
// an endpoint in place.
type Endpoint struct {
	// ID uniquely identifies the endpoint within a project.
	ID string `json:"id" yaml:"id"`

	// Method is the HTTP method to match, upper-cased at the control boundary.
	Method string `json:"method" yaml:"method"`

	// Path is the request path to match. Must start with "/".
	Path string `json:"path" yaml:"path"`

	// Status is the HTTP status code to return (100-599).
	Status int `json:"status" yaml:"status"`

	// DelayMs is the artificial response delay in milliseconds.
	DelayMs int `json:"delay" yaml:"delay"`

	// Response is the raw response body, returned byte-for-byte.
	Response string `json:"response" yaml:"response"`
}

// ServerSettings holds the listener configuration for the mock server.
type ServerSettings struct {
	Port      int    `json:"port" yaml:"port"`
	BindAddr  string `json:"bind_addr" yaml:"bind_addr"`
	EnableTLS bool   `json:"enable_tls" yaml:"enable_tls"`
}

// TLSConfig holds paths to a certificate/key pair. Either both fields are
// set or the config is absent entirely; a partially configured pair is
// rejected at the control boundary.
type TLSConfig struct {
	CertPath string `json:"cert_path" yaml:"cert_path"`
	KeyPath  string `json:"key_path" yaml:"key_path"`
}

// State is a complete project snapshot: the single unit of atomic
// replacement. The control boundary never patches individual fields of a
// live project; it submits a whole new State.
type State struct {
	Name string `json:"name" yaml:"name"`

	// LastSaved is an RFC 3339 timestamp, stamped on save. Empty until the
	// project has been saved once.
	LastSaved string `json:"lastSaved" yaml:"lastSaved"`
	Endpoints []Endpoint     `json:"endpoints" yaml:"endpoints"`
	Settings  ServerSettings `json:"settings" yaml:"settings"`
	TLS       *TLSConfig     `json:"tlsConfig" yaml:"tlsConfig"`
}

// DefaultState returns an empty project with default listener settings.
func DefaultState() *State {
	return &State{
		Name:      "untitled",
		Endpoints: []Endpoint{},
		Settings: ServerSettings{
			Port:     4000,
			BindAddr: "127.0.0.1",
		},
	}
}

// Clone returns a deep copy of the state. Use this to derive a modified
// snapshot for Store.Replace without touching the currently published one.
func (s *State) Clone() *State {
	out := &State{
		Name:      s.Name,
		LastSaved: s.LastSaved,
		Settings:  s.Settings,
	}
	out.Endpoints = make([]Endpoint, len(s.Endpoints))
	copy(out.Endpoints, s.Endpoints)
	if s.TLS != nil {
		tls := *s.TLS
		out.TLS = &tls
	}
	return out
}

package control

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime"`
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// StartServerRequest carries the listener settings for POST /server/start.
// Absent fields fall back to the stored project settings.
type StartServerRequest struct {
	Port      *int    `json:"port,omitempty"`
	BindAddr  *string `json:"bindAddr,omitempty"`
	EnableTLS *bool   `json:"enableTls,omitempty"`
}

// TLSConfigRequest carries a certificate pair for PUT /tls.
type TLSConfigRequest struct {
	CertPath string `json:"certPath"`
	KeyPath  string `json:"keyPath"`
}

// TLSPathsResponse is returned by POST /tls/generate.
type TLSPathsResponse struct {
	CertPath string `json:"certPath"`
	KeyPath  string `json:"keyPath"`
}

// ProjectPathRequest names a project file on disk.
type ProjectPathRequest struct {
	Path string `json:"path"`
}

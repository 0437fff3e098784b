package config

import (
	"strings"
	"time"
)

const (
	baseURLVar   = "TELEQUERY_BASE_URL"
	authPathVar  = "TELEQUERY_AUTH_PATH"
	queryPathVar = "TELEQUERY_QUERY_PATH"
	timeoutVar   = "TELEQUERY_TIMEOUT"
)

type EndpointConfig interface {
	GetBaseURL() string
	GetAuthURL() string
	GetQueryURL() string
	GetTimeout() time.Duration
}

type Endpoints struct{}

var _ EndpointConfig = Endpoints{}

// GetBaseURL returns the DataHalt server base URL without a trailing slash
func (Endpoints) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8000"), "/")
}

func (e Endpoints) GetAuthURL() string {
	return e.GetBaseURL() + ensureLeadingSlash(GetEnv(authPathVar, "/auth.php"))
}

func (e Endpoints) GetQueryURL() string {
	return e.GetBaseURL() + ensureLeadingSlash(GetEnv(queryPathVar, "/query.php"))
}

func (Endpoints) GetTimeout() time.Duration {
	return GetDurationEnv(timeoutVar, 30*time.Second)
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/GoRAG/internal/config"
)

var (
	once   sync.Once
	client *http.Client
)

// GetPooledClient returns the process wide client shared by the genai, openai and
// anthropic SDKs so they reuse connections. Deadlines come from the caller's context.
func GetPooledClient() *http.Client {
	once.Do(func() {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				IdleConnTimeout:     config.IdleConnTimeout,
				ForceAttemptHTTP2:   true,
			},
		}
	})
	return client
}

// CloseIdle drops pooled connections on shutdown.
func CloseIdle() {
	if client != nil {
		client.CloseIdleConnections()
	}
}

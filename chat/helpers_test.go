package chat

import (
	"testing"

	"github.com/intrafind/ihub-apps-sub007/gateway"
)

func newTestGateway(t *testing.T, baseURL string) *gateway.Client {
	t.Helper()
	gw, err := gateway.New(gateway.Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	return gw
}

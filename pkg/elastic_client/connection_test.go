package elastic_client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWithoutAddress(t *testing.T) {
	t.Setenv("EMPTYLEG_ELASTICSEARCH_ADDRESS", "")

	require.NoError(t, Connect())
	assert.False(t, IsConnected())

	assert.NotPanics(t, func() {
		IndexRequest("match-cycles-2025-29", strings.NewReader(`{}`))
		Close()
	})
}

func TestIndexRequestFlushesOnClose(t *testing.T) {
	var lock sync.Mutex
	var bulkBodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		if strings.HasSuffix(r.URL.Path, "/_bulk") {
			body, _ := io.ReadAll(r.Body)

			lock.Lock()
			bulkBodies = append(bulkBodies, string(body))
			lock.Unlock()

			io.WriteString(w, `{"took":1,"errors":false,"items":[{"index":{"_index":"match-cycles-2025-29","status":201}}]}`)
			return
		}

		io.WriteString(w, `{"name":"test","cluster_name":"test","version":{"number":"8.19.0"},"tagline":"You Know, for Search"}`)
	}))
	defer server.Close()

	t.Setenv("EMPTYLEG_ELASTICSEARCH_ADDRESS", server.URL)

	require.NoError(t, Connect())
	require.True(t, IsConnected())

	IndexRequest("match-cycles-2025-29", strings.NewReader(`{"Proposals":4}`))
	Close()

	assert.False(t, IsConnected())

	lock.Lock()
	defer lock.Unlock()
	require.Len(t, bulkBodies, 1)
	assert.Contains(t, bulkBodies[0], `"_index":"match-cycles-2025-29"`)
	assert.Contains(t, bulkBodies[0], `{"Proposals":4}`)
}

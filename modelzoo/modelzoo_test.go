package modelzoo

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZooPaths(t *testing.T) {
	z := NewWith("https://models.example.com/v1", "/tmp/cache")
	assert.Equal(t, "https://models.example.com/v1/"+YuNetModel, z.URL(YuNetModel))
	assert.Equal(t, filepath.Join("/tmp/cache", PigoPuploc), z.Path(PigoPuploc))
}

func TestZooFetchDownloadsOnce(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "model-bytes")
	}))
	defer srv.Close()

	z := NewWith(srv.URL, t.TempDir())

	path, err := z.Fetch(YuNetModel)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "model-bytes", string(data))

	// The cached copy is reused.
	again, err := z.Fetch(YuNetModel)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, hits)
}

func TestZooFetchRejectsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	z := NewWith(srv.URL, t.TempDir())
	_, err := z.Fetch(OcvCnnModel)
	require.Error(t, err)

	// A failed download leaves nothing behind in the cache.
	_, err = os.Stat(z.Path(OcvCnnModel))
	assert.True(t, os.IsNotExist(err))
}

func TestZooFetchRejectsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	z := NewWith(srv.URL, t.TempDir())
	_, err := z.Fetch(PigoFaceFinder)
	assert.Error(t, err)
}

func TestZooFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "x")
	}))
	defer srv.Close()

	z := NewWith(srv.URL, t.TempDir())
	paths, err := z.FetchAll(OcvCnnModel, OcvCnnConfig)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, z.Path(OcvCnnModel), paths[0])
	assert.Equal(t, z.Path(OcvCnnConfig), paths[1])
}

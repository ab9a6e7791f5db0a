package webservice

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/tjake/cert-bundle-maker/pkg/logging"
)

func TestServeBundleArchive(t *testing.T) {

	fs := afero.NewMemMapFs()
	archive := []byte("zip bytes")
	assert.Nil(t, afero.WriteFile(fs, "/bundles/t1-bundle.zip", archive, 0644))

	server := NewWebServer(logging.DefaultLogger(), fs, "/bundles", DefaultConfig())

	request := httptest.NewRequest(http.MethodGet, "/t1-bundle.zip", nil)
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	response := recorder.Result()
	assert.Equal(t, http.StatusOK, response.StatusCode)
	body, err := io.ReadAll(response.Body)
	assert.Nil(t, err)
	assert.Nil(t, response.Body.Close())
	assert.Equal(t, archive, body)
}

func TestServeMissingArchive(t *testing.T) {

	fs := afero.NewMemMapFs()
	server := NewWebServer(logging.DefaultLogger(), fs, "/bundles", nil)

	request := httptest.NewRequest(http.MethodGet, "/missing-bundle.zip", nil)
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Result().StatusCode)
}

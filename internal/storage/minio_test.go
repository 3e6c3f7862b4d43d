package storage

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDataURI(t *testing.T) {
	uri, err := EncodeDataURI("image/PNG; charset=binary", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", uri)

	_, err = EncodeDataURI("text/html", []byte("<script>"))
	require.Error(t, err)
}

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, IsNoSuchKey(nil))
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, IsNoSuchKey(minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}))
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "", StatusCode: 404}))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}))
	assert.True(t, IsTransient(minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}))
	assert.True(t, IsTransient(minio.ErrorResponse{StatusCode: 429}))
}

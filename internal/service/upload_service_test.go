package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

func newUploadServiceForTest(t *testing.T, limit int64) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewUploadService(store, signer, UploadConfig{APIPrefix: "/api/v1/", MaxFileSize: limit}, nil)
}

func TestUploadRoundTrip(t *testing.T) {
	svc := newUploadServiceForTest(t, 1024)

	result, err := svc.Upload(context.Background(), studentSess, "C:\\work\\lab report.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.FileName, "101/"))
	assert.True(t, strings.HasSuffix(result.FileName, "_lab_report.pdf"))
	assert.Equal(t, int64(4), result.Size)
	assert.Equal(t, "lab_report.pdf", DisplayName(result.FileName))
	require.True(t, strings.HasPrefix(result.DownloadURL, "/api/v1/files/"))

	token := strings.TrimPrefix(result.DownloadURL, "/api/v1/files/")
	file, grant, err := svc.Open(token)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))
	assert.Equal(t, "101", grant.Owner)

	link, ok := svc.DownloadURL(result.FileName)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(link, "/api/v1/files/"))
}

func TestUploadLimitsAndRoles(t *testing.T) {
	svc := newUploadServiceForTest(t, 3)

	_, err := svc.Upload(context.Background(), studentSess, "big.txt", strings.NewReader("four"))
	assert.True(t, errors.Is(err, appErrors.ErrPayloadTooLarge))

	_, err = svc.Upload(context.Background(), teacherSess, "a.txt", strings.NewReader("a"))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Upload(context.Background(), studentSess, "  ", strings.NewReader("a"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDownloadURLIgnoresForeignNames(t *testing.T) {
	svc := newUploadServiceForTest(t, 10)

	_, ok := svc.DownloadURL("lab-report.pdf")
	assert.False(t, ok)
	_, ok = svc.DownloadURL("abc/lab.pdf")
	assert.False(t, ok)
}

func TestOpenRejectsBadTokens(t *testing.T) {
	svc := newUploadServiceForTest(t, 10)

	_, _, err := svc.Open("garbage")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	signer := storage.NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("102", "101/x_a.txt")
	require.NoError(t, err)
	_, _, err = svc.Open(token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	token, _, err = signer.Generate("101", "101/missing.txt")
	require.NoError(t, err)
	_, _, err = svc.Open(token)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

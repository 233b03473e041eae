package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

type fileStorage interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
}

type urlSigner interface {
	Generate(owner, name string) (string, time.Time, error)
	Parse(token string) (storage.Grant, error)
}

// UploadConfig tunes answer file uploads.
type UploadConfig struct {
	APIPrefix   string
	MaxFileSize int64
}

// UploadService stores file answers and hands out signed download links for them.
type UploadService struct {
	storage fileStorage
	signer  urlSigner
	logger  *zap.Logger
	cfg     UploadConfig
}

// NewUploadService constructs an UploadService.
func NewUploadService(store fileStorage, signer urlSigner, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &UploadService{storage: store, signer: signer, logger: logger, cfg: cfg}
}

// Upload stores r for the signed in student. The returned file name is the value to
// submit as a file answer.
func (s *UploadService) Upload(_ context.Context, sess models.Session, filename string, r io.Reader) (*dto.UploadResult, error) {
	if err := requireRole(sess, models.RoleStudent); err != nil {
		return nil, err
	}
	base := sanitizeFilename(filename)
	if base == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}

	name := fmt.Sprintf("%d/%s_%s", sess.User.ID, uuid.NewString(), base)
	size, err := s.storage.SaveStream(name, r, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge,
				fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	token, expiresAt, err := s.signer.Generate(ownerOf(sess.User.ID), name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	s.logger.Info("answer file stored", zap.String("name", name), zap.Int64("size", size))

	return &dto.UploadResult{
		FileName:    name,
		Size:        size,
		DownloadURL: s.fileURL(token),
		ExpiresAt:   expiresAt,
	}, nil
}

// DownloadURL signs a fresh link for a file stored by Upload. Names that were not
// produced by Upload yield false.
func (s *UploadService) DownloadURL(name string) (string, bool) {
	owner, ok := ownerFromName(name)
	if !ok {
		return "", false
	}
	token, _, err := s.signer.Generate(owner, name)
	if err != nil {
		s.logger.Warn("failed to sign download url", zap.String("name", name), zap.Error(err))
		return "", false
	}
	return s.fileURL(token), true
}

// Open verifies token and opens the file it grants.
func (s *UploadService) Open(token string) (*os.File, storage.Grant, error) {
	grant, err := s.signer.Parse(token)
	if err != nil {
		return nil, storage.Grant{}, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	if owner, ok := ownerFromName(grant.Name); !ok || owner != grant.Owner {
		return nil, storage.Grant{}, appErrors.Clone(appErrors.ErrForbidden, "download token does not match file")
	}
	file, err := s.storage.Open(grant.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.Grant{}, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, storage.Grant{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return file, grant, nil
}

func (s *UploadService) fileURL(token string) string {
	return fmt.Sprintf("%s/files/%s", s.cfg.APIPrefix, token)
}

// DisplayName strips the owner and unique prefix from a stored name.
func DisplayName(name string) string {
	base := path.Base(name)
	if i := strings.IndexByte(base, '_'); i > 0 {
		if _, err := uuid.Parse(base[:i]); err == nil {
			return base[i+1:]
		}
	}
	return base
}

func ownerOf(studentID int64) string {
	return strconv.FormatInt(studentID, 10)
}

func ownerFromName(name string) (string, bool) {
	owner, rest, found := strings.Cut(name, "/")
	if !found || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil || id <= 0 {
		return "", false
	}
	return owner, true
}

func sanitizeFilename(raw string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	replacer := strings.NewReplacer(" ", "_", ":", "-", "..", ".")
	result := replacer.Replace(base)
	if len(result) > 100 {
		result = result[len(result)-100:]
	}
	return result
}

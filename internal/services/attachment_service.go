package services

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chhinhsovath/plp-telegram-manager/internal/filestore"
	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
	"github.com/chhinhsovath/plp-telegram-manager/internal/utils"
)

// AttachmentService persists attachment metadata and relocates file content
// to durable storage. Relocation is best-effort and runs off the request
// path: a failure leaves the storage URL empty, and the file stays
// retrievable through the Bot API fallback.
type AttachmentService struct {
	attachments *repositories.AttachmentRepository
	api         telegram.API
	store       filestore.Store
	pool        *utils.WorkerPool
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewAttachmentService wires the extractor. store may be nil (no durable
// storage configured) and pool may be nil (relocation runs inline, used in
// tests).
func NewAttachmentService(
	attachments *repositories.AttachmentRepository,
	api telegram.API,
	store filestore.Store,
	pool *utils.WorkerPool,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		api:         api,
		store:       store,
		pool:        pool,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// Extract persists the attachment row for a message and, when durable
// storage is configured, schedules the file relocation.
func (s *AttachmentService) Extract(messageID uint, media *telegram.Media) error {
	attachment := &models.Attachment{
		MessageID: messageID,
		FileID:    media.FileID,
		FileType:  media.FileType,
		FileName:  media.FileName,
		MimeType:  media.MimeType,
		Width:     media.Width,
		Height:    media.Height,
		Duration:  media.Duration,
		FileSize:  media.FileSize,
	}
	if err := s.attachments.Create(attachment); err != nil {
		return fmt.Errorf("failed to persist attachment for message %d: %w", messageID, err)
	}

	if s.store == nil || s.api == nil {
		return nil
	}

	id := attachment.ID
	job := func() { s.relocate(id, media) }
	if s.pool != nil {
		s.pool.Submit(job)
	} else {
		job()
	}
	return nil
}

// relocate fetches the file from the Bot API and moves it into durable
// storage, backfilling the attachment URLs. Every failure path just logs:
// the row was already created and the lazy Bot API fallback still works.
func (s *AttachmentService) relocate(attachmentID uint, media *telegram.Media) {
	publicURL, err := s.fetchAndStore(media.FileID, media.FileName)
	if err != nil {
		s.logger.Warn("attachment relocation failed",
			zap.Uint("attachment_id", attachmentID),
			zap.String("file_id", media.FileID),
			zap.Error(err),
		)
		return
	}
	if err := s.attachments.UpdateStorageURL(attachmentID, publicURL); err != nil {
		s.logger.Warn("failed to backfill storage url",
			zap.Uint("attachment_id", attachmentID),
			zap.Error(err),
		)
		return
	}

	if media.ThumbnailFileID == "" {
		return
	}
	thumbURL, err := s.fetchAndStore(media.ThumbnailFileID, "")
	if err != nil {
		s.logger.Warn("thumbnail relocation failed",
			zap.Uint("attachment_id", attachmentID),
			zap.Error(err),
		)
		return
	}
	if err := s.attachments.UpdateThumbnailURL(attachmentID, thumbURL); err != nil {
		s.logger.Warn("failed to backfill thumbnail url",
			zap.Uint("attachment_id", attachmentID),
			zap.Error(err),
		)
	}
}

func (s *AttachmentService) fetchAndStore(fileID, fileName string) (string, error) {
	url, err := telegram.FileURL(s.api, fileID)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d downloading file %s", resp.StatusCode, fileID)
	}

	return s.store.Save(objectName(fileName, url), resp.Body)
}

// objectName builds a collision-free stored name, keeping the original
// extension so the public URL stays type-hinted.
func objectName(fileName, sourceURL string) string {
	ext := path.Ext(fileName)
	if ext == "" {
		ext = path.Ext(sourceURL)
	}
	return uuid.New().String() + ext
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"multilingual-rag-be/internal/config"
	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/entity"
	"multilingual-rag-be/internal/repository/contract"
	"multilingual-rag-be/internal/repository/specification"
	"multilingual-rag-be/internal/repository/unitofwork"
	"multilingual-rag-be/pkg/events"
	pktNats "multilingual-rag-be/pkg/nats"
	"multilingual-rag-be/pkg/rag/detect"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// languageSampleRunes caps how much of the upload the detector reads.
const languageSampleRunes = 2000

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, fileName string, content []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) (*dto.ListDocumentsResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	cache            contract.ResponseCache
	detector         *detect.Detector
	docCfg           config.DocumentConfig
	fallbackLanguage string
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	cache contract.ResponseCache,
	detector *detect.Detector,
	docCfg config.DocumentConfig,
	fallbackLanguage string,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		cache:            cache,
		detector:         detector,
		docCfg:           docCfg,
		fallbackLanguage: fallbackLanguage,
	}
}

func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, fileName string, content []byte) (*dto.UploadDocumentResponse, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if !s.extensionAllowed(ext) {
		return nil, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("unsupported file type '%s', allowed: %s", ext, strings.Join(s.docCfg.AllowedExtensions, ", ")))
	}

	maxBytes := s.docCfg.MaxUploadSizeMB * 1024 * 1024
	if len(content) > maxBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d MB upload limit", s.docCfg.MaxUploadSizeMB))
	}

	if !utf8.Valid(content) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file content must be valid UTF-8 text")
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file is empty")
	}

	language, langConfidence := s.detector.Detect(languageSample(text), s.fallbackLanguage)

	document := entity.Document{
		Id:       uuid.New(),
		Title:    fileName,
		Content:  text,
		Language: language,
		Status:   entity.DocumentStatusPending,
		FileType: ext,
		UserId:   userId,
		Metadata: map[string]interface{}{
			"original_filename":   fileName,
			"size_bytes":          len(content),
			"language_confidence": langConfidence,
		},
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	msgPayload := dto.PublishProcessDocumentMessage{
		DocumentId: document.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	// The new document invalidates cached answers for this user.
	s.cache.InvalidateUser(ctx, userId)

	if s.eventPublisher != nil {
		evt := events.DocumentUploaded(document.Id, userId, document.Title)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish document.uploaded event: %v", err)
		}
	}

	return &dto.UploadDocumentResponse{
		Id:       document.Id,
		Title:    document.Title,
		Status:   document.Status,
		FileType: document.FileType,
	}, nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID) (*dto.ListDocumentsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.DocumentOwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(documents))
	for i, d := range documents {
		ids[i] = d.Id
	}
	chunkCounts, err := uow.DocumentChunkRepository().CountByDocumentIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DocumentListItem, len(documents))
	for i, d := range documents {
		items[i] = dto.DocumentListItem{
			Id:         d.Id,
			Title:      d.Title,
			Language:   d.Language,
			Status:     d.Status,
			FileType:   d.FileType,
			PageCount:  d.PageCount,
			ChunkCount: int(chunkCounts[d.Id]),
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		}
	}

	return &dto.ListDocumentsResponse{
		Documents: items,
		Total:     int64(len(items)),
	}, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.DocumentOwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	chunkCount, err := uow.DocumentChunkRepository().Count(ctx, specification.ByDocumentID{DocumentID: id})
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:         document.Id,
		Title:      document.Title,
		Content:    document.Content,
		Language:   document.Language,
		Status:     document.Status,
		FileType:   document.FileType,
		PageCount:  document.PageCount,
		ChunkCount: int(chunkCount),
		Metadata:   document.Metadata,
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}, nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.DocumentOwnedByUser{UserID: userId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	// Evidence changed; cached answers may now cite a missing document.
	s.cache.InvalidateUser(ctx, userId)
	return nil
}

func (s *documentService) extensionAllowed(ext string) bool {
	for _, allowed := range s.docCfg.AllowedExtensions {
		if strings.EqualFold(strings.TrimSpace(allowed), ext) {
			return true
		}
	}
	return false
}

func languageSample(text string) string {
	runes := []rune(text)
	if len(runes) <= languageSampleRunes {
		return text
	}
	return string(runes[:languageSampleRunes])
}

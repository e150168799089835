package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oraculo-be/internal/dto"
	"oraculo-be/internal/entity"
	"oraculo-be/internal/pkg/logger"
	"oraculo-be/internal/repository/specification"
	"oraculo-be/internal/repository/unitofwork"
	"oraculo-be/pkg/embedding"
	"oraculo-be/pkg/events"
	pktNats "oraculo-be/pkg/nats"
	"oraculo-be/pkg/utils"
	"oraculo-be/pkg/vectorsearch"

	"github.com/google/uuid"
)

type IKnowledgeService interface {
	CreateStore(ctx context.Context, req *dto.CreateVectorStoreRequest) (*dto.VectorStoreResponse, error)
	ListStores(ctx context.Context) ([]dto.VectorStoreResponse, error)
	GetStore(ctx context.Context, id uuid.UUID) (*dto.VectorStoreResponse, error)
	DeleteStore(ctx context.Context, id uuid.UUID) error
	UploadDocument(ctx context.Context, storeId uuid.UUID, filename string, content []byte) (*dto.VectorStoreDocumentResponse, error)
	ListDocuments(ctx context.Context, storeId uuid.UUID) ([]dto.VectorStoreDocumentResponse, error)
	DeleteDocument(ctx context.Context, storeId, docId uuid.UUID) error
	SearchChunks(ctx context.Context, storeId uuid.UUID, req *dto.SearchChunksRequest) ([]dto.ChunkResponse, error)
}

// knowledgeService pairs every hosted vector store with a local mirror row.
// The hosted API owns indexing and retrieval for the workflow; the local
// chunk embeddings exist so the admin dashboard can preview similarity
// matches without a remote round trip.
type knowledgeService struct {
	uowFactory     unitofwork.RepositoryFactory
	remote         *vectorsearch.Client
	embedder       embedding.Provider
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	remote *vectorsearch.Client,
	embedder embedding.Provider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:     uowFactory,
		remote:         remote,
		embedder:       embedder,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func toStoreResponse(store *entity.VectorStore) dto.VectorStoreResponse {
	return dto.VectorStoreResponse{
		Id:            store.Id,
		RemoteId:      store.RemoteId,
		Name:          store.Name,
		Description:   store.Description,
		DocumentCount: store.DocumentCount,
		UsageBytes:    store.UsageBytes,
		CreatedAt:     store.CreatedAt,
	}
}

func toDocumentResponse(doc *entity.VectorStoreDocument) dto.VectorStoreDocumentResponse {
	return dto.VectorStoreDocumentResponse{
		Id:           doc.Id,
		RemoteFileId: doc.RemoteFileId,
		Filename:     doc.Filename,
		SizeBytes:    doc.SizeBytes,
		Status:       string(doc.Status),
		CreatedAt:    doc.CreatedAt,
	}
}

func (s *knowledgeService) CreateStore(ctx context.Context, req *dto.CreateVectorStoreRequest) (*dto.VectorStoreResponse, error) {
	// Remote first: the local row only exists to mirror a hosted store.
	remoteStore, err := s.remote.CreateStore(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	store := &entity.VectorStore{
		Id:          uuid.New(),
		RemoteId:    remoteStore.Id,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.VectorStoreRepository().Create(ctx, store); err != nil {
		// Orphaned remote stores are cheap but noisy; best effort cleanup.
		if delErr := s.remote.DeleteStore(ctx, remoteStore.Id); delErr != nil {
			s.logger.Warn("KnowledgeService", "Failed to clean up remote store", map[string]interface{}{
				"remote_id": remoteStore.Id,
				"error":     delErr.Error(),
			})
		}
		return nil, err
	}

	s.publishStoreChanged(ctx, store.Id, "created")

	res := toStoreResponse(store)
	return &res, nil
}

func (s *knowledgeService) ListStores(ctx context.Context) ([]dto.VectorStoreResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stores, err := uow.VectorStoreRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	res := make([]dto.VectorStoreResponse, 0, len(stores))
	for _, store := range stores {
		res = append(res, toStoreResponse(store))
	}
	return res, nil
}

// GetStore merges the local row with live remote counters.
func (s *knowledgeService) GetStore(ctx context.Context, id uuid.UUID) (*dto.VectorStoreResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	store, err := uow.VectorStoreRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("vector store not found")
	}

	remoteStore, err := s.remote.GetStore(ctx, store.RemoteId)
	if err != nil {
		// The local view is still useful when the hosted API is down.
		s.logger.Warn("KnowledgeService", "Remote store lookup failed", map[string]interface{}{
			"remote_id": store.RemoteId,
			"error":     err.Error(),
		})
	} else {
		store.DocumentCount = remoteStore.FileCounts.Total
		store.UsageBytes = remoteStore.UsageBytes
	}

	res := toStoreResponse(store)
	return &res, nil
}

// DeleteStore propagates remote-first: the local mirror is only removed once
// the hosted store is gone.
func (s *knowledgeService) DeleteStore(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	store, err := uow.VectorStoreRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("vector store not found")
	}

	if err := s.remote.DeleteStore(ctx, store.RemoteId); err != nil {
		return fmt.Errorf("failed to delete hosted store: %w", err)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	docs, err := uow.VectorStoreDocumentRepository().FindAll(ctx, specification.FilterBy{Field: "vector_store_id", Value: store.Id})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := uow.VectorStoreChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
			return err
		}
	}
	if err := uow.VectorStoreDocumentRepository().DeleteByVectorStoreId(ctx, store.Id); err != nil {
		return err
	}
	if err := uow.VectorStoreRepository().Delete(ctx, store.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.publishStoreChanged(ctx, store.Id, "deleted")
	return nil
}

// UploadDocument pushes the file to the hosted API and mirrors it locally:
// the raw text is split into overlapping chunks, each embedded into pgvector
// for the admin similarity preview.
func (s *knowledgeService) UploadDocument(ctx context.Context, storeId uuid.UUID, filename string, content []byte) (*dto.VectorStoreDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	store, err := uow.VectorStoreRepository().FindOne(ctx, specification.ByID{ID: storeId})
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("vector store not found")
	}

	fileID, err := s.remote.UploadFile(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	if _, err := s.remote.AttachFile(ctx, store.RemoteId, fileID); err != nil {
		return nil, err
	}

	doc := &entity.VectorStoreDocument{
		Id:            uuid.New(),
		VectorStoreId: store.Id,
		RemoteFileId:  fileID,
		Filename:      filename,
		SizeBytes:     int64(len(content)),
		Status:        entity.DocumentStatusProcessing,
		CreatedAt:     time.Now(),
	}
	if err := uow.VectorStoreDocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	chunks := utils.SplitText(string(content), 1500, 200)
	embeddings := make([]*entity.VectorStoreChunk, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			s.logger.Error("KnowledgeService", "Chunk embedding failed", map[string]interface{}{
				"document_id": doc.Id.String(),
				"chunk":       i,
				"error":       err.Error(),
			})
			doc.Status = entity.DocumentStatusFailed
			_ = uow.VectorStoreDocumentRepository().Update(ctx, doc)
			res := toDocumentResponse(doc)
			return &res, nil
		}
		embeddings = append(embeddings, &entity.VectorStoreChunk{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			ChunkIndex: i,
			Content:    chunk,
			Embedding:  vec,
			CreatedAt:  time.Now(),
		})
	}

	if len(embeddings) > 0 {
		if err := uow.VectorStoreChunkRepository().CreateBulk(ctx, embeddings); err != nil {
			return nil, err
		}
	}

	doc.Status = entity.DocumentStatusReady
	if err := uow.VectorStoreDocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	s.publishStoreChanged(ctx, store.Id, "document_uploaded")

	res := toDocumentResponse(doc)
	return &res, nil
}

func (s *knowledgeService) ListDocuments(ctx context.Context, storeId uuid.UUID) ([]dto.VectorStoreDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.VectorStoreDocumentRepository().FindAll(ctx,
		specification.FilterBy{Field: "vector_store_id", Value: storeId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.VectorStoreDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, toDocumentResponse(doc))
	}
	return res, nil
}

func (s *knowledgeService) DeleteDocument(ctx context.Context, storeId, docId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	store, err := uow.VectorStoreRepository().FindOne(ctx, specification.ByID{ID: storeId})
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("vector store not found")
	}

	doc, err := uow.VectorStoreDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document not found")
	}

	if err := s.remote.DetachFile(ctx, store.RemoteId, doc.RemoteFileId); err != nil {
		return fmt.Errorf("failed to detach hosted file: %w", err)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.VectorStoreChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.VectorStoreDocumentRepository().Delete(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.publishStoreChanged(ctx, store.Id, "document_deleted")
	return nil
}

// SearchChunks embeds the query locally and ranks the store's chunks by
// cosine distance. Preview only; the workflow uses the hosted retrieval.
func (s *knowledgeService) SearchChunks(ctx context.Context, storeId uuid.UUID, req *dto.SearchChunksRequest) ([]dto.ChunkResponse, error) {
	limit := req.Limit
	if limit < 1 {
		limit = 5
	}

	vec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.VectorStoreChunkRepository().SearchSimilar(ctx, storeId, vec, limit)
	if err != nil {
		return nil, err
	}

	res := make([]dto.ChunkResponse, 0, len(chunks))
	for _, chunk := range chunks {
		res = append(res, dto.ChunkResponse{
			DocumentId: chunk.DocumentId,
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
		})
	}
	return res, nil
}

func (s *knowledgeService) publishStoreChanged(ctx context.Context, storeId uuid.UUID, action string) {
	if s.eventPublisher == nil {
		return
	}
	event := events.New(events.StoreChanged, map[string]interface{}{
		"store_id": storeId.String(),
		"action":   action,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("KnowledgeService", "Failed to publish store event", map[string]interface{}{"error": err.Error()})
	}
}

package services

import (
	"context"
	"fmt"

	apperrors "github.com/aihub/chatdoc-go/internal/errors"
	"github.com/aihub/chatdoc-go/internal/knowledge"
	"github.com/aihub/chatdoc-go/internal/metrics"
	"github.com/aihub/chatdoc-go/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadedFile 一份待入库的上传文件
type UploadedFile struct {
	Filename string
	Data     []byte
}

// IngestedDocument 入库结果
type IngestedDocument struct {
	DocID     string `json:"doc_id"`
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
}

// IngestService 文档入库管道：提取 → 分块 → 向量化 → 批量写入向量索引
type IngestService struct {
	extractor *knowledge.Extractor
	chunker   *knowledge.Chunker
	embedder  knowledge.Embedder
	store     knowledge.VectorStore
	archive   *storage.ArchiveStore
	logger    *zap.Logger
}

// NewIngestService 创建入库服务，archive可以为nil
func NewIngestService(extractor *knowledge.Extractor, chunker *knowledge.Chunker,
	embedder knowledge.Embedder, store knowledge.VectorStore,
	archive *storage.ArchiveStore, logger *zap.Logger) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		archive:   archive,
		logger:    logger,
	}
}

type preparedDocument struct {
	docID    string
	filename string
	data     []byte
	records  []knowledge.Record
}

// IngestBatch 入库一批文档
// 全有或全无：任何一份文档提取、分块或向量化失败，整批拒绝，已通过的文档也不写入；
// 写入阶段失败的文档视为未入库，调用方可整文档重试
func (s *IngestService) IngestBatch(ctx context.Context, files []UploadedFile) ([]IngestedDocument, error) {
	if len(files) == 0 {
		return nil, apperrors.NewClientError(apperrors.ErrCodeBadRequest, "no files uploaded")
	}

	// 第一阶段：全部文档先完成提取、分块、向量化，再开始写索引
	prepared := make([]preparedDocument, 0, len(files))
	for _, file := range files {
		doc, err := s.prepareDocument(ctx, file)
		if err != nil {
			return nil, wrapDocumentError(file.Filename, err)
		}
		prepared = append(prepared, *doc)
	}

	// 第二阶段：逐文档批量写入，一份文档的全部chunk在一次调用中提交
	results := make([]IngestedDocument, 0, len(prepared))
	for _, doc := range prepared {
		if err := s.store.Upsert(ctx, doc.records); err != nil {
			return nil, wrapDocumentError(doc.filename,
				apperrors.NewExternalError(apperrors.ErrCodeIndexFailure,
					"failed to index document", err))
		}

		if s.archive != nil {
			// 归档尽力而为，不影响入库结果
			if err := s.archive.Put(ctx, doc.docID, doc.filename, doc.data); err != nil {
				s.logger.Warn("failed to archive document original",
					zap.String("doc_id", doc.docID), zap.Error(err))
			}
		}

		metrics.DocumentsIngested.Inc()
		metrics.ChunksIndexed.Add(float64(len(doc.records)))
		s.logger.Info("document ingested",
			zap.String("doc_id", doc.docID),
			zap.String("filename", doc.filename),
			zap.Int("num_chunks", len(doc.records)))

		results = append(results, IngestedDocument{
			DocID:     doc.docID,
			Filename:  doc.filename,
			NumChunks: len(doc.records),
		})
	}

	return results, nil
}

func (s *IngestService) prepareDocument(ctx context.Context, file UploadedFile) (*preparedDocument, error) {
	format, err := knowledge.FormatFromFilename(file.Filename)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(file.Data, format)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunker.Split(text)
	if err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	records := make([]knowledge.Record, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, apperrors.NewExternalError(apperrors.ErrCodeEmbeddingFailure,
				"failed to embed chunk", err)
		}
		records = append(records, knowledge.Record{
			ID:        fmt.Sprintf("%s-%d", docID, chunk.Index),
			Embedding: embedding,
			Metadata: knowledge.RecordMetadata{
				DocID:    docID,
				Chunk:    chunk.Text,
				Filename: file.Filename,
			},
		})
	}

	return &preparedDocument{
		docID:    docID,
		filename: file.Filename,
		data:     file.Data,
		records:  records,
	}, nil
}

// wrapDocumentError 在批量错误中标明出错的文档
func wrapDocumentError(filename string, err error) error {
	appErr := apperrors.AsAppError(err)
	return &apperrors.AppError{
		Code:     appErr.Code,
		Message:  fmt.Sprintf("%s: %s", filename, appErr.Message),
		HTTPCode: appErr.HTTPCode,
		Details:  appErr.Details,
		Cause:    appErr.Cause,
	}
}

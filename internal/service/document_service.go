package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/vinuthas0102/WO-Module-sub004/internal/config"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"gorm.io/gorm"
)

// DocumentService 附件服务：元数据行 + MinIO对象 + 签名下载URL
type DocumentService struct {
	docRepo     *repository.DocumentRepository
	logRepo     *repository.OperationLogRepository
	minioClient *minio.Client
	bucketName  string
	upload      config.UploadConfig
}

// NewDocumentService 创建附件服务
func NewDocumentService(
	docRepo *repository.DocumentRepository,
	logRepo *repository.OperationLogRepository,
	minioClient *minio.Client,
	bucketName string,
	upload config.UploadConfig,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		logRepo:     logRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
		upload:      upload,
	}
}

// ValidateFile 校验附件大小与MIME类型
func (s *DocumentService) ValidateFile(fileSize int64, contentType string) error {
	if fileSize > s.upload.MaxSizeBytes {
		return fmt.Errorf("%w: file exceeds max size of %d bytes", ErrValidation, s.upload.MaxSizeBytes)
	}
	for _, t := range s.upload.AllowedTypes {
		if t == contentType {
			return nil
		}
	}
	return fmt.Errorf("%w: file type %q is not allowed", ErrValidation, contentType)
}

func (s *DocumentService) objectName(scopeType, scopeID, fileName string) string {
	return fmt.Sprintf("wo/%s/%s/%s/%s%s",
		scopeType, scopeID, time.Now().Format("2006/01/02"),
		uuid.New().String()[:8], filepath.Ext(fileName))
}

// Upload 上传附件：写对象存储后追加元数据行
func (s *DocumentService) Upload(ctx context.Context, scopeType, scopeID, userID string, reader io.Reader, fileName string, fileSize int64, contentType, description string) (*entity.Document, error) {
	if scopeType != entity.DocumentScopeWorkOrder && scopeType != entity.DocumentScopeStep {
		return nil, fmt.Errorf("%w: invalid scope type %q", ErrValidation, scopeType)
	}
	if err := s.ValidateFile(fileSize, contentType); err != nil {
		return nil, err
	}

	objectName := s.objectName(scopeType, scopeID, fileName)
	if s.minioClient != nil {
		_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload file: %w", err)
		}
	}

	doc := &entity.Document{
		ID:          uuid.New().String()[:32],
		ScopeType:   scopeType,
		ScopeID:     scopeID,
		FileName:    fileName,
		FilePath:    objectName,
		FileSize:    fileSize,
		MimeType:    contentType,
		Description: description,
		UploadedBy:  userID,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// List 按挂载范围获取附件，并为每个附件签发临时下载URL
func (s *DocumentService) List(ctx context.Context, scopeType, scopeID string) ([]entity.Document, error) {
	docs, err := s.docRepo.ListByScope(ctx, scopeType, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		docs[i].DownloadURL, _ = s.PresignedURL(ctx, docs[i].FilePath, docs[i].FileName)
	}
	return docs, nil
}

// PresignedURL 签发临时下载URL（默认3600秒过期）
func (s *DocumentService) PresignedURL(ctx context.Context, objectName, fileName string) (string, error) {
	if s.minioClient == nil {
		return "", nil
	}
	expiry := s.upload.PresignExpire
	if expiry <= 0 {
		expiry = time.Hour
	}
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	u, err := s.minioClient.PresignedGetObject(ctx, s.bucketName, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

// Delete 删除附件：仅上传者或管理员可删
func (s *DocumentService) Delete(ctx context.Context, id, userID string, isAdmin bool) error {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.UploadedBy != userID && !isAdmin {
		return fmt.Errorf("%w: only the uploader or an admin can delete this document", ErrPermissionDenied)
	}
	return s.docRepo.Delete(ctx, id)
}

// UploadProgress 上传进度文档
func (s *DocumentService) UploadProgress(ctx context.Context, workOrderID, stepID, userID string, reader io.Reader, fileName string, fileSize int64, contentType, description string) (*entity.ProgressDocument, error) {
	if err := s.ValidateFile(fileSize, contentType); err != nil {
		return nil, err
	}

	objectName := s.objectName("progress", workOrderID, fileName)
	if s.minioClient != nil {
		_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload file: %w", err)
		}
	}

	doc := &entity.ProgressDocument{
		ID:             uuid.New().String()[:32],
		WorkOrderID:    workOrderID,
		WorkflowStepID: stepID,
		FileName:       fileName,
		FilePath:       objectName,
		FileSize:       fileSize,
		MimeType:       contentType,
		Description:    description,
		UploadedBy:     userID,
	}
	if err := s.docRepo.CreateProgress(ctx, doc); err != nil {
		return nil, fmt.Errorf("create progress document: %w", err)
	}
	return doc, nil
}

// ListProgress 获取工单的进度文档
func (s *DocumentService) ListProgress(ctx context.Context, workOrderID string, includeDeleted bool) ([]entity.ProgressDocument, error) {
	docs, err := s.docRepo.ListProgressByWorkOrder(ctx, workOrderID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list progress documents: %w", err)
	}
	for i := range docs {
		if !docs[i].IsDeleted {
			docs[i].DownloadURL, _ = s.PresignedURL(ctx, docs[i].FilePath, docs[i].FileName)
		}
	}
	return docs, nil
}

// SoftDeleteProgress 软删除进度文档。原因不少于5个字符，
// 删除与审计日志在同一事务内写入并互相关联。
func (s *DocumentService) SoftDeleteProgress(ctx context.Context, id, userID, reason string, isAdmin bool) error {
	if len(strings.TrimSpace(reason)) < 5 {
		return fmt.Errorf("%w: delete reason must be at least 5 characters", ErrValidation)
	}

	doc, err := s.docRepo.FindProgressByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.UploadedBy != userID && !isAdmin {
		return fmt.Errorf("%w: only the uploader or an admin can delete this document", ErrPermissionDenied)
	}

	detail, _ := json.Marshal(map[string]interface{}{
		"file_name": doc.FileName,
		"reason":    reason,
	})
	logEntry := &entity.OperationLog{
		ID:         uuid.New().String()[:32],
		UserID:     userID,
		Action:     entity.ActionSoftDeleteDoc,
		EntityType: "progress_document",
		EntityID:   id,
		Detail:     detail,
	}

	return s.docRepo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.logRepo.CreateTx(ctx, tx, logEntry); err != nil {
			return err
		}
		return s.docRepo.SoftDeleteProgress(ctx, tx, id, userID, reason, logEntry.ID)
	})
}

// CopyFailure 批量复制中单个文件的失败记录
type CopyFailure struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// CopyResult 批量复制结果
type CopyResult struct {
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Failures     []CopyFailure `json:"failures,omitempty"`
}

// CopyAttachments 把源工单的附件复制到目标工单：逐个下载再以新路径上传，
// 单个文件失败只记录不中断，最终返回逐文件的成败清单。
func (s *DocumentService) CopyAttachments(ctx context.Context, srcWorkOrderID, dstWorkOrderID, userID string) (*CopyResult, error) {
	docs, err := s.docRepo.ListByScope(ctx, entity.DocumentScopeWorkOrder, srcWorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("list source documents: %w", err)
	}

	result := &CopyResult{}
	for _, src := range docs {
		if err := s.copyOne(ctx, &src, dstWorkOrderID, userID); err != nil {
			result.FailedCount++
			result.Failures = append(result.Failures, CopyFailure{
				FileName: src.FileName,
				Reason:   err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}

	detail, _ := json.Marshal(map[string]interface{}{
		"source_work_order": srcWorkOrderID,
		"success_count":     result.SuccessCount,
		"failed_count":      result.FailedCount,
	})
	s.logRepo.Create(ctx, &entity.OperationLog{
		ID:         uuid.New().String()[:32],
		UserID:     userID,
		Action:     entity.ActionCopyAttachments,
		EntityType: "work_order",
		EntityID:   dstWorkOrderID,
		Detail:     detail,
	})

	return result, nil
}

func (s *DocumentService) copyOne(ctx context.Context, src *entity.Document, dstWorkOrderID, userID string) error {
	if src.FilePath == "" {
		return fmt.Errorf("source object path is empty")
	}

	dstObject := s.objectName(entity.DocumentScopeWorkOrder, dstWorkOrderID, src.FileName)

	if s.minioClient != nil {
		obj, err := s.minioClient.GetObject(ctx, s.bucketName, src.FilePath, minio.GetObjectOptions{})
		if err != nil {
			return fmt.Errorf("download source object: %w", err)
		}
		defer obj.Close()

		_, err = s.minioClient.PutObject(ctx, s.bucketName, dstObject, obj, src.FileSize, minio.PutObjectOptions{
			ContentType: src.MimeType,
		})
		if err != nil {
			return fmt.Errorf("upload copied object: %w", err)
		}
	}

	doc := &entity.Document{
		ID:          uuid.New().String()[:32],
		ScopeType:   entity.DocumentScopeWorkOrder,
		ScopeID:     dstWorkOrderID,
		FileName:    src.FileName,
		FilePath:    dstObject,
		FileSize:    src.FileSize,
		MimeType:    src.MimeType,
		Description: src.Description,
		UploadedBy:  userID,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create copied document: %w", err)
	}
	return nil
}

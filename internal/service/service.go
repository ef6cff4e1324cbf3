package service

import (
	"context"
	"errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/vinuthas0102/WO-Module-sub004/internal/config"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
)

// 错误定义（仓储层的ErrNotFound/ErrCapacityExceeded/ErrHasAllocations直接向上传递）
var (
	ErrValidation       = errors.New("validation error")
	ErrPermissionDenied = errors.New("permission denied")
)

// Services 服务集合
type Services struct {
	Auth      *AuthService
	User      *UserService
	Catalog   *CatalogService
	WorkOrder *WorkOrderService
	Detail    *DetailService
	Step      *StepService
	Document  *DocumentService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			minioClient = nil
		}
	}

	return &Services{
		Auth:      NewAuthService(repos.User, rdb, cfg),
		User:      NewUserService(repos.User),
		Catalog:   NewCatalogService(repos.ItemMaster, repos.SpecMaster),
		WorkOrder: NewWorkOrderService(repos.WorkOrder, repos.Approval, repos.Detail, repos.OperationLog),
		Detail:    NewDetailService(repos.Detail, repos.Allocation, repos.ItemMaster, repos.SpecMaster, repos.OperationLog),
		Step:      NewStepService(repos.Step, repos.Allocation),
		Document:  NewDocumentService(repos.Document, repos.OperationLog, minioClient, cfg.MinIO.Bucket, cfg.Upload),
	}
}

// UserService 用户服务
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// ListAll 获取所有活跃用户
func (s *UserService) ListAll(ctx context.Context) ([]entity.User, error) {
	return s.repo.ListActive(ctx)
}

// Search 搜索用户（按名字/邮箱模糊匹配）
func (s *UserService) Search(ctx context.Context, query string) ([]entity.User, error) {
	return s.repo.Search(ctx, query)
}

// Package repository 定义领域仓储接口
// 仓储接口遵循 DDD 原则，定义领域对象的持久化契约
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/internal/domain/models"
)

// VersionRepository 定义文档版本仓储接口
// 版本链只允许追加，历史记录永不修改或删除
// 实现类：internal/infrastructure/persistence/postgres/version_repo_impl.go
//        internal/infrastructure/persistence/memory/version_repo.go
type VersionRepository interface {
	// Append 追加一个新版本
	// 参数：
	//   - ctx: 请求上下文
	//   - version: 版本领域模型，Sequence 必须等于当前链头序号 + 1
	// 返回：
	//   - error: 序号不连续时返回 ConcurrentModification 错误
	Append(ctx context.Context, version *models.Version) error

	// Latest 查询文档的最新版本
	// 返回：
	//   - *models.Version: 链头版本
	//   - error: 文档没有任何版本时返回 NotFound 错误
	Latest(ctx context.Context, documentID string) (*models.Version, error)

	// FindByID 根据版本 ID 查询
	FindByID(ctx context.Context, id uuid.UUID) (*models.Version, error)

	// ListByDocument 查询文档的完整版本链（按序号升序）
	ListByDocument(ctx context.Context, documentID string) ([]*models.Version, error)
}

// DocumentRepository 定义文档仓储接口
type DocumentRepository interface {
	// Get 根据文档 ID 查询，不存在时返回 NotFound 错误
	Get(ctx context.Context, id string) (*models.Document, error)

	// Save 创建或更新文档
	Save(ctx context.Context, document *models.Document) error

	// List 查询所有文档（按 ID 升序）
	List(ctx context.Context) ([]*models.Document, error)
}

//Personal.AI order the ending

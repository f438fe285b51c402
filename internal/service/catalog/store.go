// Package catalog 管理角色与场景目录。
package catalog

import (
	"context"

	"github.com/chenweiyi/roleverse/backend/internal/model/catalog"
)

// Store 暴露角色与场景的读写能力。
type Store interface {
	ListCharacters(ctx context.Context) ([]catalog.Character, error)
	GetCharacter(ctx context.Context, id string) (catalog.Character, error)
	CreateCharacter(ctx context.Context, character catalog.Character) (catalog.Character, error)
	// BumpUsage 角色被新会话选中时调用，失败只记录不阻塞。
	BumpUsage(ctx context.Context, characterID string) error

	ListScenes(ctx context.Context) ([]catalog.Scene, error)
	GetScene(ctx context.Context, id string) (catalog.Scene, error)
	CreateScene(ctx context.Context, scene catalog.Scene) (catalog.Scene, error)
}

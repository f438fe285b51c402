package catalog

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/catalog"
)

// GormStore MySQL 实现。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建数据库目录。
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Seed 在目录为空时写入默认角色与场景，重复启动不会覆盖已有数据。
func (s *GormStore) Seed(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&catalog.Character{}).Count(&count).Error; err != nil {
		return fault.Wrap(fault.Persistence, "统计角色失败", err)
	}
	if count == 0 {
		chars := catalog.DefaultCharacters()
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chars).Error; err != nil {
			return fault.Wrap(fault.Persistence, "写入默认角色失败", err)
		}
		log.Printf("[catalog] 已写入%d个默认角色", len(chars))
	}

	if err := s.db.WithContext(ctx).Model(&catalog.Scene{}).Count(&count).Error; err != nil {
		return fault.Wrap(fault.Persistence, "统计场景失败", err)
	}
	if count == 0 {
		scenes := catalog.DefaultScenes()
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&scenes).Error; err != nil {
			return fault.Wrap(fault.Persistence, "写入默认场景失败", err)
		}
		log.Printf("[catalog] 已写入%d个默认场景", len(scenes))
	}
	return nil
}

func (s *GormStore) ListCharacters(ctx context.Context) ([]catalog.Character, error) {
	var characters []catalog.Character
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("usage_count DESC, created_at ASC").
		Find(&characters).Error
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "查询角色列表失败", err)
	}
	return characters, nil
}

func (s *GormStore) GetCharacter(ctx context.Context, id string) (catalog.Character, error) {
	var character catalog.Character
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&character).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Character{}, fault.New(fault.NotFound, "角色不存在")
	}
	if err != nil {
		return catalog.Character{}, fault.Wrap(fault.Persistence, "查询角色失败", err)
	}
	return character, nil
}

func (s *GormStore) CreateCharacter(ctx context.Context, character catalog.Character) (catalog.Character, error) {
	if character.Name == "" {
		return catalog.Character{}, fault.New(fault.Validation, "缺少角色名称")
	}
	if character.ID == "" {
		character.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&character).Error; err != nil {
		return catalog.Character{}, fault.Wrap(fault.Persistence, "创建角色失败", err)
	}
	return character, nil
}

func (s *GormStore) BumpUsage(ctx context.Context, characterID string) error {
	result := s.db.WithContext(ctx).
		Model(&catalog.Character{}).
		Where("id = ?", characterID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return fault.Wrap(fault.Persistence, "更新角色使用次数失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.New(fault.NotFound, "角色不存在")
	}
	return nil
}

func (s *GormStore) ListScenes(ctx context.Context) ([]catalog.Scene, error) {
	var scenes []catalog.Scene
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at ASC").
		Find(&scenes).Error
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "查询场景列表失败", err)
	}
	return scenes, nil
}

func (s *GormStore) GetScene(ctx context.Context, id string) (catalog.Scene, error) {
	var scene catalog.Scene
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&scene).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Scene{}, fault.New(fault.NotFound, "场景不存在")
	}
	if err != nil {
		return catalog.Scene{}, fault.Wrap(fault.Persistence, "查询场景失败", err)
	}
	return scene, nil
}

func (s *GormStore) CreateScene(ctx context.Context, scene catalog.Scene) (catalog.Scene, error) {
	if scene.Name == "" || scene.BackgroundPrompt == "" {
		return catalog.Scene{}, fault.New(fault.Validation, "缺少场景名称或背景设定")
	}
	if scene.ID == "" {
		scene.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&scene).Error; err != nil {
		return catalog.Scene{}, fault.Wrap(fault.Persistence, "创建场景失败", err)
	}
	return scene, nil
}

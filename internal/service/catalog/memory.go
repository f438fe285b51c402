package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chenweiyi/roleverse/backend/internal/fault"
	"github.com/chenweiyi/roleverse/backend/internal/model/catalog"
)

// MemoryStore 内存目录，开发模式下预置默认角色与场景。
type MemoryStore struct {
	mu         sync.RWMutex
	characters map[string]catalog.Character
	charOrder  []string
	scenes     map[string]catalog.Scene
	sceneOrder []string
}

// NewMemoryStore 创建预置了给定数据的内存目录。
func NewMemoryStore(characters []catalog.Character, scenes []catalog.Scene) *MemoryStore {
	s := &MemoryStore{
		characters: make(map[string]catalog.Character),
		scenes:     make(map[string]catalog.Scene),
	}
	for _, c := range characters {
		s.characters[c.ID] = c
		s.charOrder = append(s.charOrder, c.ID)
	}
	for _, sc := range scenes {
		s.scenes[sc.ID] = sc
		s.sceneOrder = append(s.sceneOrder, sc.ID)
	}
	return s
}

func (s *MemoryStore) ListCharacters(_ context.Context) ([]catalog.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Character, 0, len(s.charOrder))
	for _, id := range s.charOrder {
		if c, ok := s.characters[id]; ok && c.IsPublic {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetCharacter(_ context.Context, id string) (catalog.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return catalog.Character{}, fault.New(fault.NotFound, "角色不存在")
	}
	return c, nil
}

func (s *MemoryStore) CreateCharacter(_ context.Context, character catalog.Character) (catalog.Character, error) {
	if character.Name == "" {
		return catalog.Character{}, fault.New(fault.Validation, "缺少角色名称")
	}
	if character.ID == "" {
		character.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	character.CreatedAt = now
	character.UpdatedAt = now

	s.mu.Lock()
	s.characters[character.ID] = character
	s.charOrder = append(s.charOrder, character.ID)
	s.mu.Unlock()
	return character, nil
}

func (s *MemoryStore) BumpUsage(_ context.Context, characterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return fault.New(fault.NotFound, "角色不存在")
	}
	c.UsageCount++
	s.characters[characterID] = c
	return nil
}

func (s *MemoryStore) ListScenes(_ context.Context) ([]catalog.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Scene, 0, len(s.sceneOrder))
	for _, id := range s.sceneOrder {
		if sc, ok := s.scenes[id]; ok && sc.IsPublic {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetScene(_ context.Context, id string) (catalog.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenes[id]
	if !ok {
		return catalog.Scene{}, fault.New(fault.NotFound, "场景不存在")
	}
	return sc, nil
}

func (s *MemoryStore) CreateScene(_ context.Context, scene catalog.Scene) (catalog.Scene, error) {
	if scene.Name == "" || scene.BackgroundPrompt == "" {
		return catalog.Scene{}, fault.New(fault.Validation, "缺少场景名称或背景设定")
	}
	if scene.ID == "" {
		scene.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	scene.CreatedAt = now
	scene.UpdatedAt = now

	s.mu.Lock()
	s.scenes[scene.ID] = scene
	s.sceneOrder = append(s.sceneOrder, scene.ID)
	s.mu.Unlock()
	return scene, nil
}

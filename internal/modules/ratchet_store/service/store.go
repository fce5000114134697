package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"stoploss_tracker/internal/models"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Backend: куда сериализуется вся коллекция целиком.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	// Read возвращает nil, если состояния ещё нет.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Store держит записи трейла в памяти и сбрасывает их в бэкенд,
// выбранный один раз при старте.
type Store struct {
	backend Backend
	log     *zap.Logger

	mu      sync.RWMutex
	entries map[string]models.RatchetEntry // key = positionId
}

func NewStore(backend Backend, log *zap.Logger) *Store {
	return &Store{
		backend: backend,
		log:     log.Named("ratchet_store"),
		entries: make(map[string]models.RatchetEntry),
	}
}

func (s *Store) Backend() string { return s.backend.Name() }

// Load читает всю коллекцию из бэкенда и заменяет содержимое памяти.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Read(ctx)
	if err != nil {
		return fmt.Errorf("ratchet store load from %s: %w", s.backend.Name(), err)
	}

	next := make(map[string]models.RatchetEntry)
	if len(data) > 0 {
		var list []models.RatchetEntry
		if err := sonic.Unmarshal(data, &list); err != nil {
			// чужой или старый формат (например, колоночный JSON): стартуем пустыми,
			// первый flush перезапишет содержимое
			s.log.Warn("ratchet state not decodable, starting empty",
				zap.String("backend", s.backend.Name()),
				zap.Int("bytes", len(data)),
				zap.Error(err),
			)
			list = nil
		}
		for _, e := range list {
			if e.PositionID == "" {
				continue
			}
			// дубль по positionId: оставляем более свежую запись
			if prev, ok := next[e.PositionID]; ok && prev.UpdatedAt > e.UpdatedAt {
				continue
			}
			next[e.PositionID] = e
		}
	}

	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()

	s.log.Info("ratchet state loaded",
		zap.String("backend", s.backend.Name()),
		zap.Int("entries", len(next)),
	)
	return nil
}

func (s *Store) Get(positionID string) (models.RatchetEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[positionID]
	return e, ok
}

// Upsert удаляет прежнюю запись позиции и кладёт новую.
func (s *Store) Upsert(e models.RatchetEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, e.PositionID)
	s.entries[e.PositionID] = e
}

func (s *Store) Remove(positionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, positionID)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries: копия коллекции, отсортированная по positionId.
func (s *Store) Entries() []models.RatchetEntry {
	s.mu.RLock()
	out := make([]models.RatchetEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].PositionID < out[j].PositionID })
	return out
}

// Flush перезаписывает состояние в бэкенде целиком (last writer wins).
func (s *Store) Flush(ctx context.Context) error {
	data, err := sonic.Marshal(s.Entries())
	if err != nil {
		return fmt.Errorf("ratchet store encode: %w", err)
	}
	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("ratchet store flush to %s: %w", s.backend.Name(), err)
	}
	return nil
}

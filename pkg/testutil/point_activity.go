package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
)

// MockPointActivityRepository keeps the feed in memory. The real one lives in
// scylla, which tests do not spin up.
type MockPointActivityRepository struct {
	mutex      sync.Mutex
	activities map[string][]entity.PointActivity
}

func NewMockPointActivityRepository() *MockPointActivityRepository {
	return &MockPointActivityRepository{activities: map[string][]entity.PointActivity{}}
}

func (m *MockPointActivityRepository) Create(ctx context.Context, data *entity.PointActivity) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.activities[data.UserID] = append(m.activities[data.UserID], *data)
	return nil
}

func (m *MockPointActivityRepository) Get(
	ctx context.Context, userID string, id int64,
) (*entity.PointActivity, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, a := range m.activities[userID] {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}

	return nil, errors.New("not found")
}

func (m *MockPointActivityRepository) GetList(
	ctx context.Context, userID string, lastID int64, limit int, oldest time.Time,
) ([]entity.PointActivity, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	all := make([]entity.PointActivity, len(m.activities[userID]))
	copy(all, m.activities[userID])
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	result := []entity.PointActivity{}
	for _, a := range all {
		if lastID != 0 && a.ID >= lastID {
			continue
		}

		if a.CreatedAt.Before(oldest) {
			continue
		}

		result = append(result, a)
		if len(result) == limit {
			break
		}
	}

	return result, nil
}

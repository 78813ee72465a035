package testutil

import (
	"context"
	"sync"

	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
)

// MockPublisher records every published pack. A test can either inspect
// Packs afterwards or hook PublishFunc for custom behavior.
type MockPublisher struct {
	PublishFunc func(context.Context, string, *pubsub.Pack) error

	mutex sync.Mutex
	packs map[string][]*pubsub.Pack
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, pack)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.packs == nil {
		m.packs = map[string][]*pubsub.Pack{}
	}

	m.packs[topic] = append(m.packs[topic], pack)
	return nil
}

func (m *MockPublisher) Stop(ctx context.Context) error {
	return nil
}

func (m *MockPublisher) Packs(topic string) []*pubsub.Pack {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.packs[topic]
}

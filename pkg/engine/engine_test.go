package engine

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tramite-io/tramite/pkg/eventbus"
	"github.com/tramite-io/tramite/pkg/events"
	"github.com/tramite-io/tramite/pkg/models"
	"github.com/tramite-io/tramite/pkg/persistence/memory"
	"github.com/tramite-io/tramite/pkg/recipients"
	"github.com/tramite-io/tramite/pkg/testutil"
)

// captureBus records published events for assertions.
type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

var _ eventbus.EventBus = (*captureBus)(nil)

func (b *captureBus) Publish(_ context.Context, _ string, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *captureBus) Handle(events.EventType, eventbus.EventHandler) {}

func (b *captureBus) Subscribe(context.Context) error { return nil }

func (b *captureBus) GenerateID() string { return "test" }

func (b *captureBus) Close() error { return nil }

func (b *captureBus) byType(eventType events.EventType) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []events.Event

	for _, event := range b.events {
		if event.GetType() == eventType {
			matched = append(matched, event)
		}
	}

	return matched
}

type harness struct {
	engine *Engine
	store  *memory.Persistence
	bus    *captureBus
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewPersistence()
	bus := &captureBus{}
	dir := testutil.TestDirectory()

	eng := New(Config{
		Persistence: store,
		Directory:   dir,
		Recipients:  recipients.NewResolver(dir, nil),
		EventBus:    bus,
		BaseURL:     "http://tramite.local",
		Now:         func() time.Time { return time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC) },
		Rand:        rand.New(rand.NewSource(42)),
	})

	return &harness{engine: eng, store: store, bus: bus}
}

// saveLinearGraph installs the triagem → aprovacao → fim graph for a type.
func (h *harness) saveLinearGraph(t *testing.T, typeID string, approverIDs ...string) {
	t.Helper()

	graph := testutil.LinearGraph(typeID, "d-rh", approverIDs)
	require.NoError(t, h.store.SaveWorkflow(context.Background(), graph))
}

func (h *harness) create(t *testing.T, typeID string, payload map[string]string) *models.Solicitation {
	t.Helper()

	solicitation, err := h.engine.Create(context.Background(), CreateRequest{
		TypeID:        typeID,
		DepartmentID:  "d-rh",
		CostCenterID:  "cc-1",
		SolicitanteID: "u-ana",
		Payload:       payload,
	})
	require.NoError(t, err)

	return solicitation
}

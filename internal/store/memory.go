package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/punchclock/punchclock/internal/models"
)

// Memory is an in-memory store used by tests and local experiments. It
// implements the same interfaces as Gorm; WithUserLock serializes callers
// per user with a mutex.
type Memory struct {
	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex

	nextEntryID uint
	entries     map[uint]models.Entry

	settings map[uint]map[string]string
	subs     map[string]models.Subscription

	users map[uint]models.User
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		userLocks: make(map[uint]*sync.Mutex),
		entries:   make(map[uint]models.Entry),
		settings:  make(map[uint]map[string]string),
		subs:      make(map[string]models.Subscription),
		users:     make(map[uint]models.User),
	}
}

var _ EntryStore = (*Memory)(nil)
var _ SettingsStore = (*Memory)(nil)
var _ SubscriptionStore = (*Memory)(nil)
var _ UserStore = (*Memory)(nil)

// sortedEntries returns the user's entries matching keep, ordered by creation.
func (m *Memory) sortedEntries(userID uint, keep func(models.Entry) bool) []models.Entry {
	var entries []models.Entry
	for _, e := range m.entries {
		if e.UserID == userID && keep(e) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func (m *Memory) LatestForDay(ctx context.Context, userID uint, date string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.sortedEntries(userID, func(e models.Entry) bool { return e.Date == date })
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	latest := entries[len(entries)-1]
	return &latest, nil
}

func (m *Memory) LatestComment(ctx context.Context, userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.sortedEntries(userID, func(e models.Entry) bool {
		return e.Comment != nil && *e.Comment != ""
	})
	if len(entries) == 0 {
		return "", nil
	}
	return *entries[len(entries)-1].Comment, nil
}

func (m *Memory) CreateEntry(ctx context.Context, entry *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextEntryID++
	entry.ID = m.nextEntryID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.entries[entry.ID] = *entry
	return nil
}

func (m *Memory) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.ID]; !ok {
		return ErrNotFound
	}
	entry.UpdatedAt = time.Now()
	m.entries[entry.ID] = *entry
	return nil
}

func (m *Memory) GetEntry(ctx context.Context, userID, entryID uint) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[entryID]
	if !ok || entry.UserID != userID {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (m *Memory) DeleteEntry(ctx context.Context, userID, entryID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[entryID]
	if !ok || entry.UserID != userID {
		return ErrNotFound
	}
	delete(m.entries, entryID)
	return nil
}

func (m *Memory) EntriesInRange(ctx context.Context, userID uint, from, to string) ([]models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.sortedEntries(userID, func(e models.Entry) bool {
		return e.Date >= from && e.Date <= to
	})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (m *Memory) DateBounds(ctx context.Context, userID uint) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var min, max string
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		if min == "" || e.Date < min {
			min = e.Date
		}
		if e.Date > max {
			max = e.Date
		}
	}
	if min == "" {
		return "", "", ErrNotFound
	}
	return min, max, nil
}

func (m *Memory) UsersWithEntries(ctx context.Context, from, to string) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[uint]bool)
	for _, e := range m.entries {
		if e.Date >= from && e.Date <= to {
			seen[e.UserID] = true
		}
	}
	ids := make([]uint, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) WithUserLock(ctx context.Context, userID uint, fn func(EntryStore) error) error {
	m.mu.Lock()
	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(m)
}

func (m *Memory) Settings(ctx context.Context, userID uint) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings := make(map[string]string, len(m.settings[userID]))
	for k, v := range m.settings[userID] {
		settings[k] = v
	}
	return settings, nil
}

func (m *Memory) SetSetting(ctx context.Context, userID uint, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settings[userID] == nil {
		m.settings[userID] = make(map[string]string)
	}
	m.settings[userID][key] = value
	return nil
}

func (m *Memory) Subscriptions(ctx context.Context, userID uint) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var subs []models.Subscription
	for _, sub := range m.subs {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Endpoint < subs[j].Endpoint })
	return subs, nil
}

func (m *Memory) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[sub.Endpoint] = *sub
	return nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subs, endpoint)
	return nil
}

// AddUser registers a user, assigning an id when unset. Test helper.
func (m *Memory) AddUser(user models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == 0 {
		user.ID = uint(len(m.users) + 1)
	}
	m.users[user.ID] = user
	return user
}

func (m *Memory) UserByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) UserIDs(ctx context.Context) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

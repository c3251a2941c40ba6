package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/domain/image"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository.
// Users created through it get a free subscription in Subscriptions when one is attached.
type MockUserRepository struct {
	mu            sync.Mutex
	Users         map[int64]*user.User
	EmailIndex    map[string]*user.User
	NextID        int64
	Subscriptions *MockSubscriptionRepository
	CreateError   error
	GetError      error
	UpdateError   error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[int64]*user.User),
		EmailIndex: make(map[string]*user.User),
		NextID:     1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.EmailIndex[u.Email]; exists {
		return errors.Conflict("Email already registered")
	}
	u.ID = m.NextID
	m.NextID++
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	u.PlanType = subscription.PlanFree
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	if m.Subscriptions != nil {
		m.Subscriptions.Seed(u.ID, subscription.PlanFree, "")
	}
	return nil
}

func (m *MockUserRepository) copyWithPlan(u *user.User) *user.User {
	c := *u
	if m.Subscriptions != nil {
		if plan, ok := m.Subscriptions.planOf(u.ID); ok {
			c.PlanType = plan
		}
	}
	return &c
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return m.copyWithPlan(u), nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return m.copyWithPlan(u), nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Users[u.ID]
	if !ok {
		return errors.NotFound("User")
	}
	stored.Username = u.Username
	stored.FullName = u.FullName
	return nil
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	stored.Role = role
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.Users[id]; ok {
		delete(m.EmailIndex, u.Email)
		delete(m.Users, id)
	}
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*user.User
	for _, u := range m.Users {
		result = append(result, m.copyWithPlan(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	total := int64(len(result))
	return page(result, limit, offset), total, nil
}

// MockSubscriptionRepository is a mock implementation of subscription.Repository
type MockSubscriptionRepository struct {
	mu         sync.Mutex
	Records    map[int64]*subscription.Record
	ApplyError error
	GetCalls   int
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{Records: make(map[int64]*subscription.Record)}
}

// Seed stores a record directly
func (m *MockSubscriptionRepository) Seed(userID int64, plan, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[userID] = &subscription.Record{
		UserID:             userID,
		PlanType:           plan,
		SubscriptionStatus: status,
		LastEventAt:        time.Unix(0, 0),
		UpdatedAt:          time.Now(),
	}
}

func (m *MockSubscriptionRepository) planOf(userID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[userID]
	if !ok {
		return "", false
	}
	return rec.PlanType, true
}

func (m *MockSubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*subscription.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	rec, ok := m.Records[userID]
	if !ok {
		return nil, errors.NotFound("Subscription")
	}
	c := *rec
	return &c, nil
}

func (m *MockSubscriptionRepository) Apply(ctx context.Context, c subscription.Change) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyError != nil {
		return false, m.ApplyError
	}
	rec, ok := m.Records[c.UserID]
	if !ok || rec.LastEventAt.Unix() > c.EventAt.Unix() {
		return false, nil
	}
	if c.PlanType != nil {
		rec.PlanType = *c.PlanType
	}
	if c.Status != nil {
		rec.SubscriptionStatus = *c.Status
	}
	if c.CustomerID != nil {
		id := *c.CustomerID
		rec.ExternalCustomerID = &id
	}
	rec.LastEventAt = time.Unix(c.EventAt.Unix(), 0)
	rec.UpdatedAt = time.Now()
	return true, nil
}

// MockEventLog is a mock implementation of subscription.EventLog
type MockEventLog struct {
	mu       sync.Mutex
	Events   map[string]subscription.ProcessedEvent
	MarkErr  error
	CheckErr error
}

func NewMockEventLog() *MockEventLog {
	return &MockEventLog{Events: make(map[string]subscription.ProcessedEvent)}
}

func (m *MockEventLog) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckErr != nil {
		return false, m.CheckErr
	}
	_, ok := m.Events[eventID]
	return ok, nil
}

func (m *MockEventLog) MarkProcessed(ctx context.Context, ev subscription.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	if _, ok := m.Events[ev.EventID]; !ok {
		m.Events[ev.EventID] = ev
	}
	return nil
}

func (m *MockEventLog) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, ev := range m.Events {
		if ev.ProcessedAt.Before(before) {
			delete(m.Events, id)
			n++
		}
	}
	return n, nil
}

// MockUsageRepository is a mock implementation of usage.Repository
type MockUsageRepository struct {
	mu           sync.Mutex
	Counts       map[string]int
	IncrementErr error
	GetErr       error
	Increments   int
}

func NewMockUsageRepository() *MockUsageRepository {
	return &MockUsageRepository{Counts: make(map[string]int)}
}

func usageKey(userID int64, day string) string {
	return fmt.Sprintf("%d/%s", userID, day)
}

func (m *MockUsageRepository) Get(ctx context.Context, userID int64, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return 0, m.GetErr
	}
	return m.Counts[usageKey(userID, day)], nil
}

func (m *MockUsageRepository) Increment(ctx context.Context, userID int64, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IncrementErr != nil {
		return 0, m.IncrementErr
	}
	m.Increments++
	m.Counts[usageKey(userID, day)]++
	return m.Counts[usageKey(userID, day)], nil
}

func (m *MockUsageRepository) PruneBefore(ctx context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.Counts {
		var uid int64
		var d string
		if _, err := fmt.Sscanf(k, "%d/%s", &uid, &d); err == nil && d < day {
			delete(m.Counts, k)
			n++
		}
	}
	return n, nil
}

func (m *MockUsageRepository) History(ctx context.Context, userID int64, limit int) ([]*usage.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*usage.Counter
	for k, c := range m.Counts {
		var uid int64
		var d string
		if _, err := fmt.Sscanf(k, "%d/%s", &uid, &d); err == nil && uid == userID {
			out = append(out, &usage.Counter{UserID: uid, Day: d, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockImageRepository is a mock implementation of image.Repository
type MockImageRepository struct {
	mu          sync.Mutex
	Images      map[int64]*image.Image
	NextID      int64
	CreateError error
}

func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{Images: make(map[int64]*image.Image), NextID: 1}
}

func (m *MockImageRepository) Create(ctx context.Context, img *image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	img.ID = m.NextID
	m.NextID++
	img.CreatedAt = time.Now()
	img.UpdatedAt = img.CreatedAt
	c := *img
	m.Images[img.ID] = &c
	return nil
}

func (m *MockImageRepository) GetByID(ctx context.Context, userID, id int64) (*image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.Images[id]
	if !ok || img.UserID != userID {
		return nil, errors.NotFound("Image")
	}
	c := *img
	return &c, nil
}

func (m *MockImageRepository) List(ctx context.Context, userID int64, filter image.Filter, limit, offset int) ([]*image.Image, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*image.Image
	for _, img := range m.Images {
		if img.UserID != userID {
			continue
		}
		if filter.AltTextStatus != "" && img.AltTextStatus != filter.AltTextStatus {
			continue
		}
		c := *img
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	total := int64(len(result))
	return page(result, limit, offset), total, nil
}

func (m *MockImageRepository) UpdateAltText(ctx context.Context, userID, id int64, altText, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.Images[id]
	if !ok || img.UserID != userID {
		return errors.NotFound("Image")
	}
	img.AltText = altText
	img.AltTextStatus = status
	img.UpdatedAt = time.Now()
	return nil
}

func (m *MockImageRepository) Delete(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.Images[id]
	if !ok || img.UserID != userID {
		return errors.NotFound("Image")
	}
	delete(m.Images, id)
	return nil
}

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mu          sync.Mutex
	Entries     []*audit.Entry
	CreateError error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	e.ID = int64(len(m.Entries) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*audit.Entry
	for i := len(m.Entries) - 1; i >= 0; i-- {
		e := m.Entries[i]
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.TargetID != "" && e.TargetID != filter.TargetID {
			continue
		}
		if filter.ActorID != nil && (e.ActorID == nil || *e.ActorID != *filter.ActorID) {
			continue
		}
		result = append(result, e)
	}
	total := int64(len(result))
	return page(result, limit, offset), total, nil
}

// MockStorage is an in-memory image.Storage
type MockStorage struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	PutError  error
	PutCalls  int
	Deleted   []string
	PublicURL string
}

func NewMockStorage() *MockStorage {
	return &MockStorage{Objects: make(map[string][]byte), PublicURL: "https://cdn.test"}
}

func (m *MockStorage) Name() string { return "mock" }

func (m *MockStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutError != nil {
		return "", m.PutError
	}
	m.Objects[key] = data
	return m.PublicURL + "/" + key, nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// Len returns the number of stored objects
func (m *MockStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// MockDescriber is a scripted image.Describer
type MockDescriber struct {
	mu    sync.Mutex
	Text  string
	Err   error
	Delay time.Duration
	Calls int
}

func NewMockDescriber(text string) *MockDescriber {
	return &MockDescriber{Text: text}
}

func (m *MockDescriber) Describe(ctx context.Context, imageURL string) (string, error) {
	m.mu.Lock()
	m.Calls++
	text, err, delay := m.Text, m.Err, m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// CallCount returns how many times Describe ran
func (m *MockDescriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

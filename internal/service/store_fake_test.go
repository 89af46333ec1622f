package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"servimarket/internal/entity"
	"servimarket/internal/repository"

	"github.com/google/uuid"
)

var errInjected = errors.New("injected store failure")

type memoryState struct {
	users     map[uuid.UUID]entity.User
	files     map[uuid.UUID]entity.File
	providers map[uuid.UUID]entity.ProviderProfile
	seekers   map[uuid.UUID]entity.SeekerProfile
	history   []entity.VerificationHistory
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:     map[uuid.UUID]entity.User{},
		files:     map[uuid.UUID]entity.File{},
		providers: map[uuid.UUID]entity.ProviderProfile{},
		seekers:   map[uuid.UUID]entity.SeekerProfile{},
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.files {
		out.files[k] = v
	}
	for k, v := range s.providers {
		out.providers[k] = v
	}
	for k, v := range s.seekers {
		out.seekers[k] = v
	}
	out.history = append([]entity.VerificationHistory(nil), s.history...)
	return out
}

// memoryStore mimics the gorm store: transactions are serialized and a
// failing closure leaves the state as it was before the transaction.
type memoryStore struct {
	mutex  *sync.Mutex
	state  *memoryState
	failOn map[string]bool

	transactions int
	rollbacks    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		mutex:  &sync.Mutex{},
		state:  newMemoryState(),
		failOn: map[string]bool{},
	}
}

func (s *memoryStore) fail(op string) error {
	if s.failOn[op] {
		return errInjected
	}
	return nil
}

func (s *memoryStore) Users() repository.UserRepository {
	return &memoryUsers{store: s}
}

func (s *memoryStore) Profiles() repository.ProfileRepository {
	return &memoryProfiles{store: s}
}

func (s *memoryStore) Files() repository.FileRepository {
	return &memoryFiles{store: s}
}

func (s *memoryStore) History() repository.VerificationHistoryRepository {
	return &memoryHistory{store: s}
}

func (s *memoryStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.transactions++
	snapshot := s.state.clone()
	tx := &memoryStore{mutex: &sync.Mutex{}, state: s.state, failOn: s.failOn}
	if err := fn(tx); err != nil {
		s.rollbacks++
		*s.state = *snapshot
		return err
	}
	return nil
}

func (s *memoryStore) profileOf(userID uuid.UUID) *entity.VerificationRecord {
	if p, ok := s.state.providers[userID]; ok {
		return &p.VerificationRecord
	}
	if p, ok := s.state.seekers[userID]; ok {
		return &p.VerificationRecord
	}
	return nil
}

func (s *memoryStore) historyOf(userID uuid.UUID) []entity.VerificationHistory {
	var out []entity.VerificationHistory
	for _, entry := range s.state.history {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out
}

type memoryUsers struct {
	store *memoryStore
}

func (r *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if err := r.store.fail("users.find"); err != nil {
		return nil, err
	}
	user, ok := r.store.state.users[id]
	if !ok || !user.IsActive {
		return nil, nil
	}
	return &user, nil
}

type memoryFiles struct {
	store *memoryStore
}

func (r *memoryFiles) FindByID(_ context.Context, id uuid.UUID) (*entity.File, error) {
	if err := r.store.fail("files.find"); err != nil {
		return nil, err
	}
	file, ok := r.store.state.files[id]
	if !ok {
		return nil, nil
	}
	return &file, nil
}

func (r *memoryFiles) FindByIDs(_ context.Context, ids []uuid.UUID) ([]entity.File, error) {
	if err := r.store.fail("files.find"); err != nil {
		return nil, err
	}
	var files []entity.File
	for _, id := range ids {
		if file, ok := r.store.state.files[id]; ok {
			files = append(files, file)
		}
	}
	return files, nil
}

func (r *memoryFiles) Tag(_ context.Context, ids []uuid.UUID, fileContext string, entityID uuid.UUID) error {
	if err := r.store.fail("files.tag"); err != nil {
		return err
	}
	for _, id := range ids {
		file, ok := r.store.state.files[id]
		if !ok {
			continue
		}
		tag := fileContext
		owner := entityID
		file.Context = &tag
		file.EntityID = &owner
		r.store.state.files[id] = file
	}
	return nil
}

type memoryProfiles struct {
	store *memoryStore
}

func (r *memoryProfiles) FindByUser(_ context.Context, user entity.User) (entity.Profile, error) {
	if err := r.store.fail("profiles.find"); err != nil {
		return nil, err
	}
	kind, ok := user.ProfileKind()
	if !ok {
		return nil, repository.ErrUnsupportedProfileKind
	}
	if kind == entity.ProfileKindProvider {
		if p, ok := r.store.state.providers[user.ID]; ok {
			return &p, nil
		}
		return nil, nil
	}
	if p, ok := r.store.state.seekers[user.ID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *memoryProfiles) FindByUserForUpdate(ctx context.Context, user entity.User) (entity.Profile, error) {
	return r.FindByUser(ctx, user)
}

func (r *memoryProfiles) Create(_ context.Context, profile entity.Profile) error {
	if err := r.store.fail("profiles.create"); err != nil {
		return err
	}
	switch p := profile.(type) {
	case *entity.ProviderProfile:
		if _, exists := r.store.state.providers[p.UserID]; !exists {
			p.ID = uuid.New()
			r.store.state.providers[p.UserID] = *p
		}
	case *entity.SeekerProfile:
		if _, exists := r.store.state.seekers[p.UserID]; !exists {
			p.ID = uuid.New()
			r.store.state.seekers[p.UserID] = *p
		}
	}
	return nil
}

func (r *memoryProfiles) SaveVerification(_ context.Context, profile entity.Profile) error {
	if err := r.store.fail("profiles.save"); err != nil {
		return err
	}
	switch p := profile.(type) {
	case *entity.ProviderProfile:
		r.store.state.providers[p.UserID] = *p
	case *entity.SeekerProfile:
		r.store.state.seekers[p.UserID] = *p
	}
	return nil
}

func (r *memoryProfiles) ListPending(_ context.Context) ([]repository.PendingProfile, error) {
	if err := r.store.fail("profiles.pending"); err != nil {
		return nil, err
	}
	var rows []repository.PendingProfile
	add := func(userID uuid.UUID, expected entity.UserType, record entity.VerificationRecord) {
		user, ok := r.store.state.users[userID]
		if !ok || !user.IsActive || user.UserType != expected || record.Status != entity.VerificationPending {
			return
		}
		rows = append(rows, repository.PendingProfile{
			UserID:              user.ID,
			Email:               user.Email,
			FullName:            user.FullName,
			UserType:            user.UserType,
			DocumentType:        record.DocumentType,
			DocumentFrontFileID: record.DocumentFrontFileID,
			DocumentBackFileID:  record.DocumentBackFileID,
			Notes:               record.Notes,
			SubmittedAt:         record.SubmittedAt,
		})
	}
	for userID, p := range r.store.state.providers {
		add(userID, entity.UserTypeProvider, p.VerificationRecord)
	}
	for userID, p := range r.store.state.seekers {
		add(userID, entity.UserTypeSeeker, p.VerificationRecord)
	}
	sort.Slice(rows, func(i, j int) bool {
		return submittedBefore(rows[i].SubmittedAt, rows[j].SubmittedAt)
	})
	return rows, nil
}

func submittedBefore(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}

type memoryHistory struct {
	store *memoryStore
}

func (r *memoryHistory) Append(_ context.Context, entry *entity.VerificationHistory) error {
	if err := r.store.fail("history.append"); err != nil {
		return err
	}
	entry.ID = uuid.New()
	r.store.state.history = append(r.store.state.history, *entry)
	return nil
}

func (r *memoryHistory) CloseOpen(
	_ context.Context,
	userID uuid.UUID,
	verificationType entity.VerificationType,
	status entity.VerificationStatus,
	at time.Time,
) (int64, error) {
	if err := r.store.fail("history.close"); err != nil {
		return 0, err
	}
	var closed int64
	for i, entry := range r.store.state.history {
		if entry.UserID == userID && entry.VerificationType == verificationType && entry.UpdatedAt == nil {
			closedAt := at
			entry.Status = status
			entry.UpdatedAt = &closedAt
			r.store.state.history[i] = entry
			closed++
		}
	}
	return closed, nil
}

func (r *memoryHistory) FindOpen(_ context.Context, userID uuid.UUID, verificationType entity.VerificationType) (*entity.VerificationHistory, error) {
	if err := r.store.fail("history.find"); err != nil {
		return nil, err
	}
	var latest *entity.VerificationHistory
	for _, entry := range r.store.state.history {
		if entry.UserID != userID || entry.VerificationType != verificationType || entry.UpdatedAt != nil {
			continue
		}
		if latest == nil || entry.RequestedAt.After(latest.RequestedAt) {
			found := entry
			latest = &found
		}
	}
	return latest, nil
}

func (r *memoryHistory) Resolve(_ context.Context, entry *entity.VerificationHistory) error {
	if err := r.store.fail("history.resolve"); err != nil {
		return err
	}
	for i, stored := range r.store.state.history {
		if stored.ID == entry.ID && stored.UpdatedAt == nil {
			r.store.state.history[i] = *entry
		}
	}
	return nil
}

func (r *memoryHistory) ListRecent(_ context.Context, userID uuid.UUID, verificationType entity.VerificationType, limit int) ([]entity.VerificationHistory, error) {
	if err := r.store.fail("history.list"); err != nil {
		return nil, err
	}
	var entries []entity.VerificationHistory
	for _, entry := range r.store.state.history {
		if entry.UserID == userID && entry.VerificationType == verificationType {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RequestedAt.After(entries[j].RequestedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type recordingNotifier struct {
	mutex         sync.Mutex
	notifications []Notification
}

func (n *recordingNotifier) Dispatch(notification Notification) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) sent() []Notification {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]Notification(nil), n.notifications...)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

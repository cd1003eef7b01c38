package storage

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackit/backend/internal/models"
)

// MemoryStore implements Store with maps guarded by one RWMutex. Every read
// returns a copy, so callers get the same read-modify-write semantics they
// would against a document database. If a JSONStore is attached, the whole
// data set is written to it after each mutation.
type MemoryStore struct {
	mu            sync.RWMutex
	questions     map[string]*models.Question
	answers       map[string]*models.Answer
	users         map[string]*models.User
	tags          map[string]*models.Tag // keyed by name
	notifications map[string]*models.Notification

	snapshot *JSONStore
}

type memorySnapshot struct {
	Questions     map[string]*models.Question     `json:"questions"`
	Answers       map[string]*models.Answer       `json:"answers"`
	Users         map[string]*snapshotUser        `json:"users"`
	Tags          map[string]*models.Tag          `json:"tags"`
	Notifications map[string]*models.Notification `json:"notifications"`
}

// snapshotUser keeps the password hash that models.User hides from JSON.
type snapshotUser struct {
	*models.User
	PasswordHash string `json:"passwordHash"`
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions:     make(map[string]*models.Question),
		answers:       make(map[string]*models.Answer),
		users:         make(map[string]*models.User),
		tags:          make(map[string]*models.Tag),
		notifications: make(map[string]*models.Notification),
	}
}

// NewPersistentMemoryStore loads dataDir/stackit.json if it exists and keeps it
// up to date afterwards.
func NewPersistentMemoryStore(dataDir string) (*MemoryStore, error) {
	js, err := NewJSONStore(dataDir, "stackit.json")
	if err != nil {
		return nil, err
	}

	s := NewMemoryStore()
	var snap memorySnapshot
	found, err := js.Load(&snap)
	if err != nil {
		return nil, err
	}
	if found {
		mergeInto(s.questions, snap.Questions)
		mergeInto(s.answers, snap.Answers)
		for id, su := range snap.Users {
			if su.User == nil {
				continue
			}
			su.User.PasswordHash = su.PasswordHash
			s.users[id] = su.User
		}
		mergeInto(s.tags, snap.Tags)
		mergeInto(s.notifications, snap.Notifications)
		slog.Info("loaded snapshot", "path", js.Path(), "questions", len(s.questions), "users", len(s.users))
	}
	s.snapshot = js
	return s, nil
}

func mergeInto[T any](dst, src map[string]*T) {
	for k, v := range src {
		dst[k] = v
	}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked()
}

// persistLocked must be called with s.mu held.
func (s *MemoryStore) persistLocked() error {
	if s.snapshot == nil {
		return nil
	}
	users := make(map[string]*snapshotUser, len(s.users))
	for id, u := range s.users {
		users[id] = &snapshotUser{User: u, PasswordHash: u.PasswordHash}
	}
	return s.snapshot.Save(memorySnapshot{
		Questions:     s.questions,
		Answers:       s.answers,
		Users:         users,
		Tags:          s.tags,
		Notifications: s.notifications,
	})
}

func (s *MemoryStore) changed() {
	if err := s.persistLocked(); err != nil {
		slog.Error("snapshot write failed", "error", err)
	}
}

func window[T any](items []T, w Window) []T {
	if w.Skip > 0 {
		if w.Skip >= int64(len(items)) {
			return []T{}
		}
		items = items[w.Skip:]
	}
	if w.Limit > 0 && int64(len(items)) > w.Limit {
		items = items[:w.Limit]
	}
	return items
}

func cloneLedger(l models.VoteLedger) models.VoteLedger {
	if l == nil {
		return nil
	}
	out := make(models.VoteLedger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func cloneQuestion(q *models.Question) *models.Question {
	cp := *q
	cp.Tags = append([]string(nil), q.Tags...)
	cp.Answers = append([]string(nil), q.Answers...)
	cp.Votes = cloneLedger(q.Votes)
	return &cp
}

func cloneAnswer(a *models.Answer) *models.Answer {
	cp := *a
	cp.Votes = cloneLedger(a.Votes)
	return &cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Badges = append([]models.Badge(nil), u.Badges...)
	return &cp
}

func cloneTag(t *models.Tag) *models.Tag {
	cp := *t
	cp.Followers = append([]string(nil), t.Followers...)
	cp.Moderators = append([]string(nil), t.Moderators...)
	return &cp
}

func cloneNotification(n *models.Notification) *models.Notification {
	cp := *n
	return &cp
}

// --- questions ---

func (s *MemoryStore) InsertQuestion(ctx context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.questions[q.ID]; exists {
		return ErrDuplicate
	}
	s.questions[q.ID] = cloneQuestion(q)
	s.changed()
	return nil
}

func (s *MemoryStore) FindQuestion(ctx context.Context, id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneQuestion(q), nil
}

func (s *MemoryStore) FindQuestions(ctx context.Context, f QuestionFilter) ([]*models.Question, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]*models.Question, 0)
	for _, q := range s.questions {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.Tag != "" && !containsString(q.Tags, strings.ToLower(f.Tag)) {
			continue
		}
		if f.Featured && !q.Featured {
			continue
		}
		if f.AuthorID != "" && q.AuthorID != f.AuthorID {
			continue
		}
		if !f.CreatedAfter.IsZero() && q.CreatedAt.Before(f.CreatedAfter) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Title), search) &&
			!strings.Contains(strings.ToLower(q.Content), search) {
			continue
		}
		matched = append(matched, q)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case models.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case models.SortVotes:
			if a.Votes.Up() != b.Votes.Up() {
				return a.Votes.Up() > b.Votes.Up()
			}
		case models.SortViews:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		case models.SortAnswers:
			if len(a.Answers) != len(b.Answers) {
				return len(a.Answers) > len(b.Answers)
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	total := int64(len(matched))
	page := window(matched, f.Window)
	out := make([]*models.Question, len(page))
	for i, q := range page {
		out[i] = cloneQuestion(q)
	}
	return out, total, nil
}

func (s *MemoryStore) updateQuestion(id string, fn func(q *models.Question)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return ErrNotFound
	}
	fn(q)
	q.UpdatedAt = time.Now().UTC()
	s.changed()
	return nil
}

func (s *MemoryStore) SetQuestionVotes(ctx context.Context, id string, votes models.VoteLedger) error {
	return s.updateQuestion(id, func(q *models.Question) {
		q.Votes = cloneLedger(votes)
	})
}

func (s *MemoryStore) PushAnswer(ctx context.Context, questionID, answerID string) error {
	return s.updateQuestion(questionID, func(q *models.Question) {
		q.Answers = append(q.Answers, answerID)
	})
}

func (s *MemoryStore) PullAnswer(ctx context.Context, questionID, answerID string, clearAccepted bool) error {
	return s.updateQuestion(questionID, func(q *models.Question) {
		kept := q.Answers[:0]
		for _, id := range q.Answers {
			if id != answerID {
				kept = append(kept, id)
			}
		}
		q.Answers = kept
		if clearAccepted {
			q.AcceptedAnswer = ""
		}
	})
}

func (s *MemoryStore) SetAcceptedAnswer(ctx context.Context, questionID, answerID string) error {
	return s.updateQuestion(questionID, func(q *models.Question) {
		q.AcceptedAnswer = answerID
	})
}

func (s *MemoryStore) IncrementViews(ctx context.Context, id string) error {
	return s.updateQuestion(id, func(q *models.Question) {
		q.Views++
	})
}

func (s *MemoryStore) SetQuestionFeatured(ctx context.Context, id string, featured bool) (*models.Question, error) {
	if err := s.updateQuestion(id, func(q *models.Question) {
		q.Featured = featured
	}); err != nil {
		return nil, err
	}
	return s.FindQuestion(ctx, id)
}

func (s *MemoryStore) DeleteQuestion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return ErrNotFound
	}
	delete(s.questions, id)
	s.changed()
	return nil
}

// --- answers ---

func (s *MemoryStore) InsertAnswer(ctx context.Context, a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.answers[a.ID]; exists {
		return ErrDuplicate
	}
	s.answers[a.ID] = cloneAnswer(a)
	s.changed()
	return nil
}

func (s *MemoryStore) FindAnswer(ctx context.Context, id string) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.answers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAnswer(a), nil
}

func (s *MemoryStore) FindAnswers(ctx context.Context, f AnswerFilter) ([]*models.Answer, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Answer, 0)
	for _, a := range s.answers {
		if f.QuestionID != "" && a.QuestionID != f.QuestionID {
			continue
		}
		if f.AuthorID != "" && a.AuthorID != f.AuthorID {
			continue
		}
		if f.AcceptedOnly && !a.IsAccepted {
			continue
		}
		if !f.CreatedAfter.IsZero() && a.CreatedAt.Before(f.CreatedAfter) {
			continue
		}
		matched = append(matched, a)
	}

	// Answers under a question read oldest first; a user's answers newest first.
	sort.SliceStable(matched, func(i, j int) bool {
		if f.QuestionID != "" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := window(matched, f.Window)
	out := make([]*models.Answer, len(page))
	for i, a := range page {
		out[i] = cloneAnswer(a)
	}
	return out, total, nil
}

func (s *MemoryStore) updateAnswer(id string, fn func(a *models.Answer)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[id]
	if !ok {
		return ErrNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now().UTC()
	s.changed()
	return nil
}

func (s *MemoryStore) SetAnswerVotes(ctx context.Context, id string, votes models.VoteLedger) error {
	return s.updateAnswer(id, func(a *models.Answer) {
		a.Votes = cloneLedger(votes)
	})
}

func (s *MemoryStore) SetAnswerAccepted(ctx context.Context, id string, accepted bool) error {
	return s.updateAnswer(id, func(a *models.Answer) {
		a.IsAccepted = accepted
	})
}

func (s *MemoryStore) DeleteAnswer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.answers[id]; !ok {
		return ErrNotFound
	}
	delete(s.answers, id)
	s.changed()
	return nil
}

func (s *MemoryStore) DeleteAnswersByQuestion(ctx context.Context, questionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, a := range s.answers {
		if a.QuestionID == questionID {
			delete(s.answers, id)
			n++
		}
	}
	if n > 0 {
		s.changed()
	}
	return n, nil
}

// --- users ---

func (s *MemoryStore) InsertUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ID == u.ID ||
			strings.EqualFold(existing.Username, u.Username) ||
			strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	s.users[u.ID] = cloneUser(u)
	s.changed()
	return nil
}

func (s *MemoryStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUserBy(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUserBy(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (s *MemoryStore) findUserBy(match func(u *models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindUsers(ctx context.Context, f UserFilter) ([]*models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]*models.User, 0)
	for _, u := range s.users {
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		if f.InactiveOnly && u.IsActive {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if !f.CreatedAfter.IsZero() && u.JoinedAt.Before(f.CreatedAfter) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Bio), search) &&
			!(f.SearchEmail && strings.Contains(u.Email, search)) {
			continue
		}
		matched = append(matched, u)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case "newest":
			return a.JoinedAt.After(b.JoinedAt)
		case "oldest":
			return a.JoinedAt.Before(b.JoinedAt)
		case "name":
			return a.Username < b.Username
		default:
			if a.Reputation != b.Reputation {
				return a.Reputation > b.Reputation
			}
			return a.Username < b.Username
		}
	})

	total := int64(len(matched))
	page := window(matched, f.Window)
	out := make([]*models.User, len(page))
	for i, u := range page {
		out[i] = cloneUser(u)
	}
	return out, total, nil
}

func (s *MemoryStore) updateUser(id string, fn func(u *models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	s.changed()
	return cloneUser(u), nil
}

func (s *MemoryStore) IncrementReputation(ctx context.Context, id string, delta int) (*models.User, error) {
	return s.updateUser(id, func(u *models.User) {
		u.Reputation += delta
	})
}

func (s *MemoryStore) PushBadges(ctx context.Context, id string, badges []models.Badge) error {
	_, err := s.updateUser(id, func(u *models.User) {
		for _, b := range badges {
			if !u.HasBadge(b.Name) {
				u.Badges = append(u.Badges, b)
			}
		}
	})
	return err
}

func (s *MemoryStore) SetRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	return s.updateUser(id, func(u *models.User) {
		u.Role = role
	})
}

func (s *MemoryStore) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	return s.updateUser(id, func(u *models.User) {
		u.IsActive = active
	})
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	return s.updateUser(id, req.Apply)
}

// --- tags ---

func (s *MemoryStore) InsertTag(ctx context.Context, t *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tags[t.Name]; exists {
		return ErrDuplicate
	}
	s.tags[t.Name] = cloneTag(t)
	s.changed()
	return nil
}

func (s *MemoryStore) FindTag(ctx context.Context, name string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[name]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTag(t), nil
}

func (s *MemoryStore) FindTags(ctx context.Context, f TagFilter) ([]*models.Tag, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]*models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		if search != "" && !strings.Contains(t.Name, search) {
			continue
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case "newest":
			return a.CreatedAt.After(b.CreatedAt)
		case "name":
			return a.Name < b.Name
		default:
			if a.QuestionCount != b.QuestionCount {
				return a.QuestionCount > b.QuestionCount
			}
			return a.Name < b.Name
		}
	})

	total := int64(len(matched))
	page := window(matched, f.Window)
	out := make([]*models.Tag, len(page))
	for i, t := range page {
		out[i] = cloneTag(t)
	}
	return out, total, nil
}

func (s *MemoryStore) UpdateTag(ctx context.Context, t *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[t.Name]; !ok {
		return ErrNotFound
	}
	cp := cloneTag(t)
	cp.UpdatedAt = time.Now().UTC()
	s.tags[t.Name] = cp
	s.changed()
	return nil
}

func (s *MemoryStore) IncrementQuestionCount(ctx context.Context, name string, delta int, upsert bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t, ok := s.tags[name]
	if !ok {
		if !upsert {
			return nil
		}
		t = &models.Tag{
			ID:         uuid.New().String(),
			Name:       name,
			Color:      models.DefaultTagColor,
			Followers:  []string{},
			Moderators: []string{},
			CreatedAt:  now,
		}
		s.tags[name] = t
	}
	t.QuestionCount += delta
	t.UpdatedAt = now
	s.changed()
	return nil
}

func (s *MemoryStore) ToggleFollower(ctx context.Context, name, userID string) (*models.FollowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tags[name]
	if !ok {
		return nil, ErrNotFound
	}

	following := containsString(t.Followers, userID)
	if following {
		kept := make([]string, 0, len(t.Followers))
		for _, f := range t.Followers {
			if f != userID {
				kept = append(kept, f)
			}
		}
		t.Followers = kept
	} else {
		t.Followers = append(t.Followers, userID)
	}
	t.UpdatedAt = time.Now().UTC()
	s.changed()

	return &models.FollowResult{IsFollowing: !following, FollowerCount: len(t.Followers)}, nil
}

// --- notifications ---

func (s *MemoryStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return ErrDuplicate
	}
	s.notifications[n.ID] = cloneNotification(n)
	s.changed()
	return nil
}

func (s *MemoryStore) FindNotifications(ctx context.Context, f NotificationFilter) ([]*models.Notification, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Notification, 0)
	for _, n := range s.notifications {
		if f.Recipient != "" && n.Recipient != f.Recipient {
			continue
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := window(matched, f.Window)
	out := make([]*models.Notification, len(page))
	for i, n := range page {
		out[i] = cloneNotification(n)
	}
	return out, total, nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, recipient string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, nt := range s.notifications {
		if nt.Recipient == recipient && !nt.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, recipient, id string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.Recipient != recipient {
		return nil, ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = time.Now().UTC()
	s.changed()
	return cloneNotification(n), nil
}

func (s *MemoryStore) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	now := time.Now().UTC()
	for _, n := range s.notifications {
		if n.Recipient == recipient && !n.IsRead {
			n.IsRead = true
			n.UpdatedAt = now
			count++
		}
	}
	if count > 0 {
		s.changed()
	}
	return count, nil
}

func (s *MemoryStore) DeleteNotification(ctx context.Context, recipient, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.Recipient != recipient {
		return ErrNotFound
	}
	delete(s.notifications, id)
	s.changed()
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var _ Store = (*MemoryStore)(nil)

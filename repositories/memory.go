package repositories

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/voting"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type MemoryUsers struct {
	mu    sync.RWMutex
	byID  map[bson.ObjectID]*models.User
	email map[string]bson.ObjectID
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:  make(map[bson.ObjectID]*models.User),
		email: make(map[string]bson.ObjectID),
	}
}

func (r *MemoryUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.email[u.Email]; taken {
		return apperrors.Conflict("email already in use")
	}
	r.insert(u)
	return nil
}

func (r *MemoryUsers) EnsureUser(_ context.Context, u *models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.email[u.Email]; taken {
		return false, nil
	}
	r.insert(u)
	return true, nil
}

func (r *MemoryUsers) insert(u *models.User) {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.email[u.Email] = u.ID
}

func (r *MemoryUsers) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.email[email]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryUsers) FindByIDs(_ context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[bson.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			cp := *u
			cp.PasswordHash = ""
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *MemoryUsers) UpdateProfile(_ context.Context, id bson.ObjectID, upd UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Profile != nil {
		u.Profile = *upd.Profile
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (r *MemoryUsers) UpdateRole(_ context.Context, id bson.ObjectID, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryUsers) UpdatePasswordHash(_ context.Context, id bson.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// memoryVotes holds the vote sets of one entity kind and applies swaps
// under a single lock, which gives the same per-document atomicity as the
// conditional update in MongoDB.
type memoryVotes struct {
	mu     sync.RWMutex
	entity string
	votes  map[bson.ObjectID]voting.Snapshot
	// onChange mirrors counters into the owning record and reports whether
	// the record differed from s. Called with mu held.
	onChange func(id bson.ObjectID, s voting.Snapshot) bool
}

func (m *memoryVotes) LoadVotes(_ context.Context, id bson.ObjectID) (voting.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.votes[id]
	if !ok {
		return voting.Snapshot{}, apperrors.NotFound(m.entity + " not found")
	}
	return s.Clone(), nil
}

func (m *memoryVotes) SwapVote(_ context.Context, id, user bson.ObjectID, from, to voting.State) (voting.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.votes[id]
	if !ok {
		return voting.Snapshot{}, false, apperrors.NotFound(m.entity + " not found")
	}
	next, ok := voting.Swap(s, user, from, to)
	if !ok {
		return voting.Snapshot{}, false, nil
	}
	m.votes[id] = next
	m.onChange(id, next)
	return next.Clone(), true, nil
}

func (m *memoryVotes) ReconcileVotes(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for id, s := range m.votes {
		clean := voting.Snapshot{Up: dedupe(s.Up, nil), Down: dedupe(s.Down, s.Up)}
		m.votes[id] = clean
		if m.onChange(id, clean) {
			changed++
		}
	}
	return changed, nil
}

func dedupe(ids, exclude []bson.ObjectID) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if slices.Contains(out, id) || slices.Contains(exclude, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

type MemoryQuestions struct {
	*memoryVotes
	items map[bson.ObjectID]*models.Question
}

func NewMemoryQuestions() *MemoryQuestions {
	r := &MemoryQuestions{items: make(map[bson.ObjectID]*models.Question)}
	r.memoryVotes = &memoryVotes{
		entity: "question",
		votes:  make(map[bson.ObjectID]voting.Snapshot),
		onChange: func(id bson.ObjectID, s voting.Snapshot) bool {
			q := r.items[id]
			differs := !slices.Equal(q.UpvotedBy, s.Up) || !slices.Equal(q.DownvotedBy, s.Down) ||
				q.Upvotes != s.Upvotes() || q.Downvotes != s.Downvotes()
			if !differs {
				return false
			}
			q.UpvotedBy, q.DownvotedBy = s.Clone().Up, s.Clone().Down
			q.Upvotes, q.Downvotes = s.Upvotes(), s.Downvotes()
			q.UpdatedAt = time.Now().UTC()
			return true
		},
	}
	return r
}

// Seed stores q as is, vote sets included. Used to load fixtures.
func (r *MemoryQuestions) Seed(q models.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneQuestion(&q)
	r.items[q.ID] = cp
	r.votes[q.ID] = voting.Snapshot{Up: cp.UpvotedBy, Down: cp.DownvotedBy}.Clone()
}

func (r *MemoryQuestions) Create(_ context.Context, q *models.Question) error {
	if q.ID.IsZero() {
		q.ID = bson.NewObjectID()
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	q.UpvotedBy, q.DownvotedBy = []bson.ObjectID{}, []bson.ObjectID{}
	q.Upvotes, q.Downvotes = 0, 0

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[q.ID] = cloneQuestion(q)
	r.votes[q.ID] = voting.Snapshot{Up: []bson.ObjectID{}, Down: []bson.ObjectID{}}
	return nil
}

func (r *MemoryQuestions) FindByID(_ context.Context, id bson.ObjectID) (*models.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.items[id]
	if !ok {
		return nil, apperrors.NotFound("question not found")
	}
	return cloneQuestion(q), nil
}

func (r *MemoryQuestions) List(_ context.Context, f QuestionFilter) ([]models.Question, int64, error) {
	r.mu.RLock()
	matched := make([]models.Question, 0, len(r.items))
	query := strings.ToLower(f.Query)
	for _, q := range r.items {
		if !f.IncludeUnapproved && !q.IsApproved && (f.Owner.IsZero() || q.UserID != f.Owner) {
			continue
		}
		if f.Resolved != nil && q.IsResolved != *f.Resolved {
			continue
		}
		if f.Tag != "" && !slices.Contains(q.Tags, f.Tag) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(q.Title), query) &&
			!slices.ContainsFunc(q.Tags, func(t string) bool { return strings.Contains(t, query) }) {
			continue
		}
		matched = append(matched, *cloneQuestion(q))
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if f.Sort == SortVotes {
			if a.Upvotes != b.Upvotes {
				return a.Upvotes > b.Upvotes
			}
			if a.Downvotes != b.Downvotes {
				return a.Downvotes < b.Downvotes
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	total := int64(len(matched))
	start := min(f.skip(), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (r *MemoryQuestions) AcceptAnswer(_ context.Context, id, answerID bson.ObjectID) error {
	return r.update(id, func(q *models.Question) {
		a := answerID
		q.AcceptedAnswerID = &a
		q.IsResolved = true
	})
}

func (r *MemoryQuestions) SetApproved(_ context.Context, id bson.ObjectID, approved bool) error {
	return r.update(id, func(q *models.Question) { q.IsApproved = approved })
}

func (r *MemoryQuestions) update(id bson.ObjectID, fn func(*models.Question)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.items[id]
	if !ok {
		return apperrors.NotFound("question not found")
	}
	fn(q)
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneQuestion(q *models.Question) *models.Question {
	cp := *q
	cp.Tags = append([]string{}, q.Tags...)
	cp.UpvotedBy = append([]bson.ObjectID{}, q.UpvotedBy...)
	cp.DownvotedBy = append([]bson.ObjectID{}, q.DownvotedBy...)
	if q.AcceptedAnswerID != nil {
		a := *q.AcceptedAnswerID
		cp.AcceptedAnswerID = &a
	}
	return &cp
}

type MemoryAnswers struct {
	*memoryVotes
	items map[bson.ObjectID]*models.Answer
}

func NewMemoryAnswers() *MemoryAnswers {
	r := &MemoryAnswers{items: make(map[bson.ObjectID]*models.Answer)}
	r.memoryVotes = &memoryVotes{
		entity: "answer",
		votes:  make(map[bson.ObjectID]voting.Snapshot),
		onChange: func(id bson.ObjectID, s voting.Snapshot) bool {
			a := r.items[id]
			differs := !slices.Equal(a.UpvotedBy, s.Up) || !slices.Equal(a.DownvotedBy, s.Down) ||
				a.Upvotes != s.Upvotes() || a.Downvotes != s.Downvotes() || a.Votes != s.Score()
			if !differs {
				return false
			}
			a.UpvotedBy, a.DownvotedBy = s.Clone().Up, s.Clone().Down
			a.Upvotes, a.Downvotes, a.Votes = s.Upvotes(), s.Downvotes(), s.Score()
			a.UpdatedAt = time.Now().UTC()
			return true
		},
	}
	return r
}

// Seed stores a as is, vote sets and counters included.
func (r *MemoryAnswers) Seed(a models.Answer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneAnswer(&a)
	r.items[a.ID] = cp
	r.votes[a.ID] = voting.Snapshot{Up: cp.UpvotedBy, Down: cp.DownvotedBy}.Clone()
}

func (r *MemoryAnswers) Create(_ context.Context, a *models.Answer) error {
	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	a.UpvotedBy, a.DownvotedBy = []bson.ObjectID{}, []bson.ObjectID{}
	a.Votes, a.Upvotes, a.Downvotes = 0, 0, 0

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = cloneAnswer(a)
	r.votes[a.ID] = voting.Snapshot{Up: []bson.ObjectID{}, Down: []bson.ObjectID{}}
	return nil
}

func (r *MemoryAnswers) FindByID(_ context.Context, id bson.ObjectID) (*models.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, apperrors.NotFound("answer not found")
	}
	return cloneAnswer(a), nil
}

func (r *MemoryAnswers) ListByQuestion(_ context.Context, questionID bson.ObjectID) ([]models.Answer, error) {
	r.mu.RLock()
	out := make([]models.Answer, 0)
	for _, a := range r.items {
		if a.QuestionID == questionID {
			out = append(out, *cloneAnswer(a))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryAnswers) CountByQuestions(_ context.Context, questionIDs []bson.ObjectID) (map[bson.ObjectID]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[bson.ObjectID]int64, len(questionIDs))
	for _, a := range r.items {
		if slices.Contains(questionIDs, a.QuestionID) {
			out[a.QuestionID]++
		}
	}
	return out, nil
}

func cloneAnswer(a *models.Answer) *models.Answer {
	cp := *a
	cp.UpvotedBy = append([]bson.ObjectID{}, a.UpvotedBy...)
	cp.DownvotedBy = append([]bson.ObjectID{}, a.DownvotedBy...)
	return &cp
}

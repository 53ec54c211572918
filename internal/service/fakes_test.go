package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/heritage-archive/archive-service/internal/batch"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) add(user domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := user
	if u.ID == "" {
		r.seq++
		u.ID = "user-" + strconv.Itoa(r.seq)
	}
	r.users[u.ID] = &u
	return &u
}

func (r *fakeUserRepo) UpsertBySubject(_ context.Context, attrs repository.UserUpsert) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.SubjectID == attrs.SubjectID {
			if attrs.Email != "" {
				u.Email = attrs.Email
			}
			copied := *u
			return &copied, nil
		}
	}
	r.seq++
	u := &domain.User{
		ID:        "user-" + strconv.Itoa(r.seq),
		SubjectID: attrs.SubjectID,
		Email:     attrs.Email,
		FirstName: attrs.FirstName,
		LastName:  attrs.LastName,
		Username:  attrs.Username,
		Role:      domain.UserRoleUser,
		CreatedAt: time.Now(),
	}
	r.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetBySubject(_ context.Context, subjectID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.SubjectID == subjectID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []string) (map[string]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

type fakeFriendshipRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Friendship
	// createHook runs inside Create before the row is stored, simulating a
	// concurrent writer sneaking in between a read and the insert.
	createHook func()
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{rows: map[string]*domain.Friendship{}}
}

func pairKey(a, b string) string {
	low, high := domain.CanonicalPair(a, b)
	return low + "|" + high
}

func (r *fakeFriendshipRepo) Create(_ context.Context, f *domain.Friendship) (bool, error) {
	if r.createHook != nil {
		hook := r.createHook
		r.createHook = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(f.UserLow, f.UserHigh)
	if _, exists := r.rows[key]; exists {
		return false, nil
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	copied := *f
	r.rows[key] = &copied
	return true, nil
}

func (r *fakeFriendshipRepo) Get(_ context.Context, userA, userB string) (*domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[pairKey(userA, userB)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *f
	return &copied, nil
}

func (r *fakeFriendshipRepo) UpdateStatus(_ context.Context, userA, userB string, status domain.FriendshipStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[pairKey(userA, userB)]
	if !ok {
		return pgx.ErrNoRows
	}
	f.Status = status
	f.UpdatedAt = time.Now()
	return nil
}

func (r *fakeFriendshipRepo) Delete(_ context.Context, userA, userB string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(userA, userB)
	if _, ok := r.rows[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, key)
	return nil
}

func (r *fakeFriendshipRepo) ListByUser(_ context.Context, userID string) ([]domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Friendship
	for _, f := range r.rows {
		if f.Involves(userID) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) ListPendingByReceiver(_ context.Context, userID string) ([]domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Friendship
	for _, f := range r.rows {
		if f.Status == domain.FriendshipStatusPending && f.ReceiverID() == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) ListPendingByInitiator(_ context.Context, userID string) ([]domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Friendship
	for _, f := range r.rows {
		if f.Status == domain.FriendshipStatusPending && f.InitiatorID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*domain.FriendInvite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[string]*domain.FriendInvite{}}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *domain.FriendInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *invite
	r.invites[invite.ID] = &copied
	return nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, id string) (*domain.FriendInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *invite
	return &copied, nil
}

func (r *fakeInviteRepo) UpdateStatus(_ context.Context, id string, status domain.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[id]
	if !ok {
		return pgx.ErrNoRows
	}
	invite.Status = status
	return nil
}

func (r *fakeInviteRepo) ListPendingByEmail(_ context.Context, email string) ([]domain.FriendInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FriendInvite
	for _, invite := range r.invites {
		if invite.InviteeEmail == email && invite.Status == domain.InviteStatusPending {
			out = append(out, *invite)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows []domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == notificationID && r.rows[i].UserID == userID {
			r.rows[i].Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.rows {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.rows {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*domain.Task{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) SetExternalJobID(_ context.Context, id, externalJobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	task.ExternalJobID = &externalJobID
	return nil
}

func (r *fakeTaskRepo) AdvanceStatus(_ context.Context, id string, from, to domain.TaskStatus, errorMessage string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	if task.Status != from {
		return false, nil
	}
	task.Status = to
	task.ErrorMessage = errorMessage
	task.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTaskRepo) UpdatePayload(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[task.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Payload = task.Payload
	return nil
}

type fakeJobRunner struct {
	mu         sync.Mutex
	configured bool
	submitErr  error
	nextJobID  string
	submitted  []batch.JobSpec

	describeErr error
	statuses    map[string]string
	reasons     map[string]string
	describes   int

	queueJobs []batch.JobDetail
}

func newFakeJobRunner() *fakeJobRunner {
	return &fakeJobRunner{configured: true, nextJobID: "job-1", statuses: map[string]string{}, reasons: map[string]string{}}
}

func (r *fakeJobRunner) Configured() bool { return r.configured }

func (r *fakeJobRunner) SubmitJob(_ context.Context, spec batch.JobSpec) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.submitErr != nil {
		return "", r.submitErr
	}
	r.submitted = append(r.submitted, spec)
	return r.nextJobID, nil
}

func (r *fakeJobRunner) DescribeJobs(_ context.Context, jobIDs []string) ([]batch.JobDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.describes++
	if r.describeErr != nil {
		return nil, r.describeErr
	}
	var out []batch.JobDetail
	for _, id := range jobIDs {
		if status, ok := r.statuses[id]; ok {
			out = append(out, batch.JobDetail{JobID: id, Status: status, StatusReason: r.reasons[id]})
		}
	}
	return out, nil
}

func (r *fakeJobRunner) ListQueueJobs(_ context.Context) ([]batch.JobDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.describeErr != nil {
		return nil, r.describeErr
	}
	return append([]batch.JobDetail{}, r.queueJobs...), nil
}

// recordingDispatcher captures published events synchronously.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

var errBoom = errors.New("boom")

package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heritage-archive/archive-service/internal/config"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/storage"
)

type fakeMediaRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Media
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{rows: map[string]*domain.Media{}}
}

func (r *fakeMediaRepo) Create(_ context.Context, media *domain.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	media.CreatedAt = time.Now()
	copied := *media
	r.rows[media.ID] = &copied
	return nil
}

func (r *fakeMediaRepo) GetByID(_ context.Context, id string) (*domain.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	media, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *media
	return &copied, nil
}

func (r *fakeMediaRepo) Update(_ context.Context, media *domain.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[media.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *media
	r.rows[media.ID] = &copied
	return nil
}

func (r *fakeMediaRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Media
	for _, m := range r.rows {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMediaRepo) ListByApproval(_ context.Context, status domain.ApprovalStatus, _, _ int) ([]domain.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Media
	for _, m := range r.rows {
		if m.ApprovalStatus == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeTranscriptRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{rows: map[string]*domain.Transcript{}}
}

func (r *fakeTranscriptRepo) Create(_ context.Context, transcript *domain.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if transcript.IsCurrent {
		for _, tr := range r.rows {
			if tr.MediaID == transcript.MediaID {
				tr.IsCurrent = false
			}
		}
	}
	copied := *transcript
	r.rows[transcript.ID] = &copied
	return nil
}

func (r *fakeTranscriptRepo) GetCurrentByMedia(_ context.Context, mediaID string) (*domain.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tr := range r.rows {
		if tr.MediaID == mediaID && tr.IsCurrent {
			copied := *tr
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTranscriptRepo) Update(_ context.Context, transcript *domain.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[transcript.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *transcript
	r.rows[transcript.ID] = &copied
	return nil
}

func (r *fakeTranscriptRepo) ListByMedia(_ context.Context, mediaID string) ([]domain.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transcript
	for _, tr := range r.rows {
		if tr.MediaID == mediaID {
			out = append(out, *tr)
		}
	}
	return out, nil
}

type fakePresigner struct {
	err  error
	last string
}

func (p *fakePresigner) PresignUpload(_ context.Context, key, _ string) (*storage.UploadURL, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.last = key
	return &storage.UploadURL{URL: "https://example.com/" + key, Key: key, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

type mediaFixture struct {
	svc         *MediaService
	media       *fakeMediaRepo
	transcripts *fakeTranscriptRepo
	users       *fakeUserRepo
	friendships *fakeFriendshipRepo
	tasks       *fakeTaskRepo
	runner      *fakeJobRunner
	presigner   *fakePresigner
	dispatcher  *recordingDispatcher
	owner       *domain.User
	viewer      *domain.User
	admin       *domain.User
}

func newMediaFixture(t *testing.T) *mediaFixture {
	t.Helper()
	f := &mediaFixture{
		media:       newFakeMediaRepo(),
		transcripts: newFakeTranscriptRepo(),
		users:       newFakeUserRepo(),
		friendships: newFakeFriendshipRepo(),
		tasks:       newFakeTaskRepo(),
		runner:      newFakeJobRunner(),
		presigner:   &fakePresigner{},
		dispatcher:  &recordingDispatcher{},
	}
	f.owner = f.users.add(domain.User{ID: "user-owner", Email: "owner@example.com"})
	f.viewer = f.users.add(domain.User{ID: "user-viewer", Email: "viewer@example.com"})
	f.admin = f.users.add(domain.User{ID: "user-admin", Email: "admin@example.com", Role: domain.UserRoleAdmin})

	friendshipSvc := NewFriendshipService(config.AuthConfig{InviteBcryptCost: 4}, FriendshipDependencies{
		FriendshipRepo: f.friendships,
		UserRepo:       f.users,
		InviteRepo:     newFakeInviteRepo(),
		Dispatcher:     f.dispatcher,
	})
	taskSvc := NewTaskService(config.BatchConfig{}, TaskDependencies{
		TaskRepo:   f.tasks,
		Runner:     f.runner,
		Dispatcher: f.dispatcher,
		Logger:     zap.NewNop(),
	})
	f.svc = NewMediaService(config.StorageConfig{Bucket: "archive-media", MaxUploadBytes: 1 << 30}, MediaDependencies{
		MediaRepo:      f.media,
		TranscriptRepo: f.transcripts,
		UserRepo:       f.users,
		Friendships:    friendshipSvc,
		Tasks:          taskSvc,
		Presigner:      f.presigner,
		Dispatcher:     f.dispatcher,
	})
	return f
}

func (f *mediaFixture) seedMedia(t *testing.T, visibility domain.Visibility, approval domain.ApprovalStatus) *domain.Media {
	t.Helper()
	media := &domain.Media{
		ID:               "media-1",
		UserID:           f.owner.ID,
		Type:             domain.MediaTypeVideo,
		Name:             "grandma-interview.mp4",
		Visibility:       visibility,
		StorageKey:       "protected/user-owner/videos/uploads/1-grandma-interview.mp4",
		ApprovalStatus:   approval,
		ModerationStatus: domain.ModerationStatusPending,
	}
	require.NoError(t, f.media.Create(context.Background(), media))
	return media
}

func (f *mediaFixture) seedCurrentTranscript(t *testing.T, mediaID string, status domain.TranscriptStatus) *domain.Transcript {
	t.Helper()
	tr := &domain.Transcript{
		ID:        "tr-1",
		MediaID:   mediaID,
		Text:      "we came here in 1952...",
		Status:    status,
		IsCurrent: true,
	}
	require.NoError(t, f.transcripts.Create(context.Background(), tr))
	return tr
}

func TestIssueUploadURLValidation(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()

	_, err := f.svc.IssueUploadURL(ctx, f.owner.ID, "a.txt", "text/plain", 100)
	requireDomainCode(t, err, "VALIDATION_FAILED", 400)

	_, err = f.svc.IssueUploadURL(ctx, f.owner.ID, "a.mp4", "video/mp4", 2<<30)
	requireDomainCode(t, err, "VALIDATION_FAILED", 400)

	url, err := f.svc.IssueUploadURL(ctx, f.owner.ID, "family clip!.mp4", "video/mp4", 100)
	require.NoError(t, err)
	require.Contains(t, url.Key, "protected/"+f.owner.ID+"/videos/uploads/")
	require.Contains(t, url.Key, "family_clip_.mp4")
}

func TestRegisterDefaultsToPrivateDraft(t *testing.T) {
	f := newMediaFixture(t)

	media, err := f.svc.Register(context.Background(), RegisterInput{
		UserID:     f.owner.ID,
		StorageKey: "protected/user-owner/videos/uploads/1-clip.mp4",
		MimeType:   "video/mp4",
	})
	require.NoError(t, err)
	require.Equal(t, domain.VisibilityPrivate, media.Visibility)
	require.Equal(t, domain.ApprovalStatusDraft, media.ApprovalStatus)
	require.Equal(t, "1-clip.mp4", media.Name)
}

func TestGetForViewerVisibilityRules(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()

	// private draft: owner and admin only
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusDraft)
	_, err := f.svc.GetForViewer(ctx, f.owner.ID, media.ID)
	require.NoError(t, err)
	_, err = f.svc.GetForViewer(ctx, f.admin.ID, media.ID)
	require.NoError(t, err)
	_, err = f.svc.GetForViewer(ctx, f.viewer.ID, media.ID)
	requireDomainCode(t, err, "NOT_FOUND", 404)

	// approved public: everyone
	media.Visibility = domain.VisibilityPublic
	media.ApprovalStatus = domain.ApprovalStatusApproved
	require.NoError(t, f.media.Update(ctx, media))
	_, err = f.svc.GetForViewer(ctx, f.viewer.ID, media.ID)
	require.NoError(t, err)

	// approved friends-only: accepted friendship required
	media.Visibility = domain.VisibilityFriends
	require.NoError(t, f.media.Update(ctx, media))
	_, err = f.svc.GetForViewer(ctx, f.viewer.ID, media.ID)
	requireDomainCode(t, err, "NOT_FOUND", 404)

	friendship := domain.NewFriendship(f.owner.ID, f.viewer.ID)
	friendship.Status = domain.FriendshipStatusAccepted
	_, err = f.friendships.Create(ctx, friendship)
	require.NoError(t, err)
	_, err = f.svc.GetForViewer(ctx, f.viewer.ID, media.ID)
	require.NoError(t, err)
}

func TestStartProcessingOwnerOnly(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusDraft)

	_, err := f.svc.StartProcessing(ctx, f.viewer.ID, media.ID)
	requireDomainCode(t, err, "FORBIDDEN", 403)

	task, err := f.svc.StartProcessing(ctx, f.owner.ID, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusProcessing, task.Status)

	stored, err := f.media.GetByID(ctx, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ModerationStatusProcessing, stored.ModerationStatus)

	// cannot start twice
	_, err = f.svc.StartProcessing(ctx, f.owner.ID, media.ID)
	requireDomainCode(t, err, "INVALID_STATE", 400)
}

func TestStartProcessingQueuesTranscript(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusDraft)

	_, err := f.svc.StartProcessing(ctx, f.owner.ID, media.ID)
	require.NoError(t, err)

	tr, err := f.transcripts.GetCurrentByMedia(ctx, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TranscriptStatusQueued, tr.Status)
	require.True(t, tr.IsCurrent)
}

func TestListTranscriptVersionsOwnerOnly(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusDraft)
	f.seedCurrentTranscript(t, media.ID, domain.TranscriptStatusCompleted)

	// a fresh processing run queues a new current version, demoting the old one
	_, err := f.svc.StartProcessing(ctx, f.owner.ID, media.ID)
	require.NoError(t, err)

	_, err = f.svc.ListTranscriptVersions(ctx, f.viewer.ID, media.ID)
	requireDomainCode(t, err, "FORBIDDEN", 403)

	versions, err := f.svc.ListTranscriptVersions(ctx, f.owner.ID, media.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	current := 0
	for _, v := range versions {
		if v.IsCurrent {
			current++
			require.Equal(t, domain.TranscriptStatusQueued, v.Status)
		}
	}
	require.Equal(t, 1, current)
}

func TestReviewTranscriptQueuesAdminReview(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusDraft)
	f.seedCurrentTranscript(t, media.ID, domain.TranscriptStatusCompleted)

	err := f.svc.ReviewTranscript(ctx, f.viewer.ID, media.ID, true, domain.VisibilityFriends)
	requireDomainCode(t, err, "FORBIDDEN", 403)

	require.NoError(t, f.svc.ReviewTranscript(ctx, f.owner.ID, media.ID, true, domain.VisibilityFriends))

	stored, err := f.media.GetByID(ctx, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalStatusAwaitingAdmin, stored.ApprovalStatus)

	tr, err := f.transcripts.GetCurrentByMedia(ctx, media.ID)
	require.NoError(t, err)
	require.True(t, tr.UserApproved)
	require.NotNil(t, tr.DesiredVisibility)
	require.Equal(t, domain.VisibilityFriends, *tr.DesiredVisibility)
}

func TestReviewTranscriptPrivateStaysDraft(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusDraft)
	f.seedCurrentTranscript(t, media.ID, domain.TranscriptStatusCompleted)

	require.NoError(t, f.svc.ReviewTranscript(ctx, f.owner.ID, media.ID, true, domain.VisibilityPrivate))

	stored, err := f.media.GetByID(ctx, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalStatusDraft, stored.ApprovalStatus)
	require.Equal(t, domain.VisibilityPrivate, stored.Visibility)
}

func TestAdminApprovePublishesAtRequestedVisibility(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusAwaitingAdmin)
	tr := f.seedCurrentTranscript(t, media.ID, domain.TranscriptStatusCompleted)
	wanted := domain.VisibilityPublic
	tr.DesiredVisibility = &wanted
	tr.UserApproved = true
	require.NoError(t, f.transcripts.Update(ctx, tr))

	require.NoError(t, f.svc.Approve(ctx, f.admin.ID, media.ID))

	stored, err := f.media.GetByID(ctx, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalStatusApproved, stored.ApprovalStatus)
	require.Equal(t, domain.VisibilityPublic, stored.Visibility)

	published := f.dispatcher.published()
	require.NotEmpty(t, published)
	require.Equal(t, events.EventMediaApproved, published[len(published)-1].Type)

	// a second approval finds nothing awaiting review
	err = f.svc.Approve(ctx, f.admin.ID, media.ID)
	requireDomainCode(t, err, "INVALID_STATE", 400)
}

func TestAdminRejectReturnsToPrivate(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	media := f.seedMedia(t, domain.VisibilityPrivate, domain.ApprovalStatusAwaitingAdmin)

	require.NoError(t, f.svc.Reject(ctx, f.admin.ID, media.ID, "audio quality"))

	stored, err := f.media.GetByID(ctx, media.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalStatusRejected, stored.ApprovalStatus)
	require.Equal(t, domain.VisibilityPrivate, stored.Visibility)

	published := f.dispatcher.published()
	require.Equal(t, events.EventMediaRejected, published[len(published)-1].Type)
	payload := published[len(published)-1].Payload.(events.MediaReviewedPayload)
	require.Equal(t, "audio quality", payload.Reason)
}

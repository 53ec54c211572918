package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/heritage-archive/archive-service/internal/config"
	"github.com/heritage-archive/archive-service/internal/domain"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/repository"
	"github.com/heritage-archive/archive-service/internal/storage"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// MediaService manages uploaded recordings, their visibility rules and the
// admin publication review.
type MediaService struct {
	media       repository.MediaRepository
	transcripts repository.TranscriptRepository
	users       repository.UserRepository
	friendships *FriendshipService
	tasks       *TaskService
	presigner   storage.Presigner
	dispatcher  events.Dispatcher
	bucket      string
	maxUpload   int64
}

// MediaDependencies bundles requirements for the media service.
type MediaDependencies struct {
	MediaRepo      repository.MediaRepository
	TranscriptRepo repository.TranscriptRepository
	UserRepo       repository.UserRepository
	Friendships    *FriendshipService
	Tasks          *TaskService
	Presigner      storage.Presigner
	Dispatcher     events.Dispatcher
}

// NewMediaService constructs the service.
func NewMediaService(cfg config.StorageConfig, deps MediaDependencies) *MediaService {
	return &MediaService{
		media:       deps.MediaRepo,
		transcripts: deps.TranscriptRepo,
		users:       deps.UserRepo,
		friendships: deps.Friendships,
		tasks:       deps.Tasks,
		presigner:   deps.Presigner,
		dispatcher:  deps.Dispatcher,
		bucket:      cfg.Bucket,
		maxUpload:   cfg.MaxUploadBytes,
	}
}

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/webm":      true,
}

// IssueUploadURL validates the upload request and returns a presigned PUT URL
// scoped to the caller's key prefix.
func (s *MediaService) IssueUploadURL(ctx context.Context, userID, fileName, contentType string, sizeBytes int64) (*storage.UploadURL, error) {
	if !allowedVideoTypes[contentType] {
		return nil, apperrors.NewValidationError("unsupported content type", map[string]any{"content_type": contentType})
	}
	if sizeBytes <= 0 || (s.maxUpload > 0 && sizeBytes > s.maxUpload) {
		return nil, apperrors.NewValidationError("file size out of range", map[string]any{"size_bytes": sizeBytes})
	}
	if s.presigner == nil {
		return nil, apperrors.NewInvalidState("upload storage not configured")
	}

	key := fmt.Sprintf("protected/%s/videos/uploads/%d-%s",
		userID, time.Now().UnixMilli(), sanitizeFileName(fileName))
	url, err := s.presigner.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, apperrors.NewUpstream("storage", err)
	}
	return url, nil
}

// RegisterInput describes a completed upload to record.
type RegisterInput struct {
	UserID          string
	Name            string
	Description     string
	StorageKey      string
	SizeBytes       int64
	MimeType        string
	DurationSeconds float64
}

// Register records an uploaded video as a private draft.
func (s *MediaService) Register(ctx context.Context, input RegisterInput) (*domain.Media, error) {
	if input.StorageKey == "" {
		return nil, apperrors.NewValidationError("storage key is required", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = sanitizeFileName(input.StorageKey[strings.LastIndex(input.StorageKey, "/")+1:])
	}

	media := &domain.Media{
		ID:               uuid.NewString(),
		UserID:           input.UserID,
		Type:             domain.MediaTypeVideo,
		Name:             name,
		Description:      strings.TrimSpace(input.Description),
		Visibility:       domain.VisibilityPrivate,
		StorageKey:       input.StorageKey,
		SizeBytes:        input.SizeBytes,
		MimeType:         input.MimeType,
		DurationSeconds:  input.DurationSeconds,
		ApprovalStatus:   domain.ApprovalStatusDraft,
		ModerationStatus: domain.ModerationStatusPending,
	}
	if err := s.media.Create(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

// GetForViewer loads a media item subject to visibility rules. Owners always
// see their items. PUBLIC items require admin approval; FRIENDS items require
// an accepted friendship with the owner. Items the viewer may not see report
// not found rather than leaking their existence.
func (s *MediaService) GetForViewer(ctx context.Context, viewerID, mediaID string) (*domain.Media, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
		}
		return nil, err
	}
	if media.UserID == viewerID {
		return media, nil
	}
	if viewer, err := s.users.GetByID(ctx, viewerID); err == nil && viewer.IsAdmin() {
		return media, nil
	}
	if media.ApprovalStatus != domain.ApprovalStatusApproved {
		return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
	}
	switch media.Visibility {
	case domain.VisibilityPublic:
		return media, nil
	case domain.VisibilityFriends:
		friends, err := s.friendships.AreFriends(ctx, viewerID, media.UserID)
		if err != nil {
			return nil, err
		}
		if friends {
			return media, nil
		}
	}
	return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
}

// ListOwn returns the caller's media, newest first.
func (s *MediaService) ListOwn(ctx context.Context, userID string, limit, offset int) ([]domain.Media, error) {
	return s.media.ListByUser(ctx, userID, limit, offset)
}

// StartProcessing kicks off the external pipeline for an uploaded item and
// returns the tracking task. Only the owner may start processing.
func (s *MediaService) StartProcessing(ctx context.Context, userID, mediaID string) (*domain.Task, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
		}
		return nil, err
	}
	if media.UserID != userID {
		return nil, apperrors.NewForbidden("only the owner may start processing")
	}
	if media.ModerationStatus != domain.ModerationStatusPending {
		return nil, apperrors.NewInvalidState("media is already processing or processed")
	}

	task, err := s.tasks.SubmitVideoProcessing(ctx, domain.VideoProcessingPayload{
		UserID:    userID,
		MediaID:   media.ID,
		VideoKey:  media.StorageKey,
		Bucket:    s.bucket,
		FileName:  media.Name,
		SizeBytes: media.SizeBytes,
		MimeType:  media.MimeType,
	})
	if err != nil {
		return nil, err
	}

	// queue the transcript version the pipeline will fill in; it becomes
	// the current one, demoting any earlier version
	transcript := &domain.Transcript{
		ID:        uuid.NewString(),
		MediaID:   media.ID,
		Status:    domain.TranscriptStatusQueued,
		IsCurrent: true,
	}
	if err := s.transcripts.Create(ctx, transcript); err != nil {
		return nil, err
	}

	media.ModerationStatus = domain.ModerationStatusProcessing
	if err := s.media.Update(ctx, media); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTranscriptVersions returns every transcript version for a media item,
// owner only.
func (s *MediaService) ListTranscriptVersions(ctx context.Context, userID, mediaID string) ([]domain.Transcript, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
		}
		return nil, err
	}
	if media.UserID != userID {
		return nil, apperrors.NewForbidden("only the owner may review transcripts")
	}
	return s.transcripts.ListByMedia(ctx, mediaID)
}

// GetCurrentTranscript returns the current transcript version, owner only.
func (s *MediaService) GetCurrentTranscript(ctx context.Context, userID, mediaID string) (*domain.Transcript, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
		}
		return nil, err
	}
	if media.UserID != userID {
		return nil, apperrors.NewForbidden("only the owner may review transcripts")
	}
	transcript, err := s.transcripts.GetCurrentByMedia(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("transcript", map[string]any{"media_id": mediaID})
		}
		return nil, err
	}
	return transcript, nil
}

// ReviewTranscript records the owner's approval of the current transcript
// and the visibility they want on publish. Anything beyond PRIVATE queues
// the item for admin review.
func (s *MediaService) ReviewTranscript(ctx context.Context, userID, mediaID string, approved bool, visibility domain.Visibility) error {
	switch visibility {
	case domain.VisibilityPrivate, domain.VisibilityFriends, domain.VisibilityPublic:
	default:
		return apperrors.NewValidationError("invalid visibility", map[string]any{"visibility": visibility})
	}

	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
		}
		return err
	}
	if media.UserID != userID {
		return apperrors.NewForbidden("only the owner may review transcripts")
	}
	transcript, err := s.transcripts.GetCurrentByMedia(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("transcript", map[string]any{"media_id": mediaID})
		}
		return err
	}
	if transcript.Status != domain.TranscriptStatusCompleted {
		return apperrors.NewInvalidState("transcript is not ready for review")
	}

	transcript.UserApproved = approved
	transcript.DesiredVisibility = &visibility
	if !approved {
		transcript.Status = domain.TranscriptStatusRejected
	}
	if err := s.transcripts.Update(ctx, transcript); err != nil {
		return err
	}

	if approved && visibility != domain.VisibilityPrivate {
		media.ApprovalStatus = domain.ApprovalStatusAwaitingAdmin
	} else if approved {
		media.Visibility = domain.VisibilityPrivate
		media.ApprovalStatus = domain.ApprovalStatusDraft
	}
	return s.media.Update(ctx, media)
}

// ListAwaitingReview returns media queued for admin publication review.
func (s *MediaService) ListAwaitingReview(ctx context.Context, limit, offset int) ([]domain.Media, error) {
	return s.media.ListByApproval(ctx, domain.ApprovalStatusAwaitingAdmin, limit, offset)
}

// Approve publishes a media item at the visibility its owner requested.
// Admin only, enforced at the route.
func (s *MediaService) Approve(ctx context.Context, adminID, mediaID string) error {
	media, err := s.loadAwaiting(ctx, mediaID)
	if err != nil {
		return err
	}

	visibility := domain.VisibilityFriends
	if transcript, err := s.transcripts.GetCurrentByMedia(ctx, mediaID); err == nil && transcript.DesiredVisibility != nil {
		visibility = *transcript.DesiredVisibility
	}
	media.ApprovalStatus = domain.ApprovalStatusApproved
	media.Visibility = visibility
	if err := s.media.Update(ctx, media); err != nil {
		return err
	}

	s.publishReview(ctx, events.EventMediaApproved, adminID, media, "")
	return nil
}

// Reject declines publication and returns the item to draft.
func (s *MediaService) Reject(ctx context.Context, adminID, mediaID, reason string) error {
	media, err := s.loadAwaiting(ctx, mediaID)
	if err != nil {
		return err
	}
	media.ApprovalStatus = domain.ApprovalStatusRejected
	media.Visibility = domain.VisibilityPrivate
	if err := s.media.Update(ctx, media); err != nil {
		return err
	}

	s.publishReview(ctx, events.EventMediaRejected, adminID, media, reason)
	return nil
}

func (s *MediaService) loadAwaiting(ctx context.Context, mediaID string) (*domain.Media, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("media", map[string]any{"media_id": mediaID})
		}
		return nil, err
	}
	if media.ApprovalStatus != domain.ApprovalStatusAwaitingAdmin {
		return nil, apperrors.NewInvalidState("media is not awaiting review")
	}
	return media, nil
}

func (s *MediaService) publishReview(ctx context.Context, eventType events.EventType, adminID string, media *domain.Media, reason string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   adminID,
		Timestamp: time.Now(),
		Payload: events.MediaReviewedPayload{
			OwnerID:   media.UserID,
			MediaID:   media.ID,
			MediaName: media.Name,
			Reason:    reason,
		},
	})
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

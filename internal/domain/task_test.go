package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		allowed  bool
	}{
		{TaskStatusPending, TaskStatusProcessing, true},
		{TaskStatusPending, TaskStatusCompleted, true},
		{TaskStatusPending, TaskStatusFailed, true},
		{TaskStatusProcessing, TaskStatusCompleted, true},
		{TaskStatusProcessing, TaskStatusFailed, true},
		{TaskStatusProcessing, TaskStatusPending, false},
		{TaskStatusCompleted, TaskStatusProcessing, false},
		{TaskStatusCompleted, TaskStatusFailed, false},
		{TaskStatusFailed, TaskStatusCompleted, false},
		{TaskStatusFailed, TaskStatusProcessing, false},
		{TaskStatusPending, TaskStatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	require.False(t, TaskStatusPending.IsTerminal())
	require.False(t, TaskStatusProcessing.IsTerminal())
	require.True(t, TaskStatusCompleted.IsTerminal())
	require.True(t, TaskStatusFailed.IsTerminal())
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	payload := VideoProcessingPayload{
		UserID:      "user-a",
		MediaID:     "media-1",
		VideoKey:    "protected/user-a/videos/uploads/1-clip.mp4",
		Bucket:      "archive-media",
		FileName:    "clip.mp4",
		SizeBytes:   1024,
		MimeType:    "video/mp4",
		Steps:       VideoProcessingSteps(),
		CurrentStep: StepModeration,
	}

	raw, err := EncodeTaskPayload(payload)
	require.NoError(t, err)

	decoded, err := DecodeTaskPayload(TaskTypeVideoProcessing, raw)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestDecodeTaskPayloadUnknownType(t *testing.T) {
	_, err := DecodeTaskPayload(TaskType("MYSTERY"), []byte(`{}`))
	require.Error(t, err)

	_, err = EncodeTaskPayload(nil)
	require.Error(t, err)
}

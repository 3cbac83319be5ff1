package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArtifact(t *testing.T) {
	promptID := uuid.New()
	userID := uuid.New()

	artifact, err := NewArtifact(promptID, userID, "Jazz Melody", "https://cdn.melodia.app/audio/x.mp3", 512_000, 120)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, artifact.ID)
	assert.Equal(t, "Jazz Melody", artifact.Title)
	assert.Equal(t, promptID, artifact.PromptID)
	assert.Equal(t, userID, artifact.UserID)
	assert.Equal(t, int64(512_000), artifact.SizeBytes)
	assert.Equal(t, 120, artifact.DurationSeconds)
	assert.False(t, artifact.CreatedAt.IsZero())
}

func TestNewArtifactValidation(t *testing.T) {
	promptID := uuid.New()
	userID := uuid.New()

	testCases := []struct {
		name     string
		promptID uuid.UUID
		userID   uuid.UUID
		title    string
		url      string
		wantErr  error
	}{
		{"empty title", promptID, userID, "", "https://cdn.melodia.app/a.mp3", ErrEmptyArtifactTitle},
		{"empty url", promptID, userID, "Jazz Melody", "", ErrEmptyArtifactURL},
		{"empty prompt ID", uuid.Nil, userID, "Jazz Melody", "https://cdn.melodia.app/a.mp3", ErrEmptyArtifactPromptID},
		{"empty user ID", promptID, uuid.Nil, "Jazz Melody", "https://cdn.melodia.app/a.mp3", ErrEmptyArtifactUserID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			artifact, err := NewArtifact(tc.promptID, tc.userID, tc.title, tc.url, 0, 0)
			assert.Nil(t, artifact)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

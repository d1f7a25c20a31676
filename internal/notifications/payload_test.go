package notifications

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-suite/backend/internal/models"
)

func TestDecodePayloadVariants(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("no related entity", func(t *testing.T) {
		t.Parallel()
		p := DecodePayload(&models.Notification{})
		assert.Equal(t, Payload{}, p)
	})

	t.Run("event", func(t *testing.T) {
		t.Parallel()
		p := DecodePayload(&models.Notification{
			RelatedType: models.RelatedEvent,
			RelatedID:   &id,
			Payload:     json.RawMessage(`{"title":"Festival X"}`),
		})
		require.NotNil(t, p.Event)
		assert.Equal(t, id, p.Event.EventID)
		assert.Equal(t, "Festival X", p.Event.Title)
		assert.Nil(t, p.Participant)
		assert.Nil(t, p.Unknown)
	})

	t.Run("participant", func(t *testing.T) {
		t.Parallel()
		p := DecodePayload(&models.Notification{
			RelatedType: models.RelatedParticipant,
			RelatedID:   &id,
		})
		require.NotNil(t, p.Participant)
		assert.Equal(t, id, p.Participant.ParticipantID)
	})

	t.Run("proposal", func(t *testing.T) {
		t.Parallel()
		p := DecodePayload(&models.Notification{
			RelatedType: models.RelatedProposal,
			RelatedID:   &id,
		})
		require.NotNil(t, p.Proposal)
		assert.Equal(t, id, p.Proposal.ProposalID)
	})

	t.Run("malformed body keeps the row id", func(t *testing.T) {
		t.Parallel()
		p := DecodePayload(&models.Notification{
			RelatedType: models.RelatedEvent,
			RelatedID:   &id,
			Payload:     json.RawMessage(`{broken`),
		})
		require.NotNil(t, p.Event)
		assert.Equal(t, id, p.Event.EventID)
	})
}

// An unrecognized related_type decodes to the explicit unknown variant
// instead of being dropped or misread as one of the known kinds.
func TestDecodePayloadUnknownFallback(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	raw := json.RawMessage(`{"whatever":1}`)
	p := DecodePayload(&models.Notification{
		RelatedType: models.RelatedType("invoice"),
		RelatedID:   &id,
		Payload:     raw,
	})
	require.NotNil(t, p.Unknown)
	assert.Equal(t, "invoice", p.Unknown.RelatedType)
	assert.Equal(t, raw, p.Unknown.Raw)
	assert.Nil(t, p.Event)
	assert.Nil(t, p.Participant)
	assert.Nil(t, p.Proposal)
}

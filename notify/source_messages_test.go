package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amora-app/amora-server/database/model"
)

type fakeMessageRepo struct {
	messages []model.Message
}

func (r *fakeMessageRepo) ListMessages(ctx context.Context) ([]model.Message, error) {
	return r.messages, nil
}

func (r *fakeMessageRepo) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	return nil, model.ErrNotFound
}

func (r *fakeMessageRepo) InsertMessage(ctx context.Context, m *model.Message) error { return nil }
func (r *fakeMessageRepo) UpdateMessage(ctx context.Context, m *model.Message) error { return nil }
func (r *fakeMessageRepo) DeleteMessage(ctx context.Context, id string) error        { return nil }

func TestMessageSourceSummary(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := &fakeMessageRepo{messages: []model.Message{
		{ID: "m3", Title: "Good morning", Created: now.Add(-time.Hour)},
		{ID: "m2", Title: "Read one", Read: true, Created: now.Add(-2 * time.Hour)},
		{ID: "m1", Title: "Older note", Created: now.Add(-3 * time.Hour)},
	}}
	src := NewMessageSource(repo)

	ns, err := src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 1)

	n := ns[0]
	assert.Equal(t, "2 unread message(s)", n.Title)
	assert.Equal(t, "Latest: Good morning", n.Description)
	assert.Equal(t, NewID(KindMessagesUnread, "m3"), n.ID)
	assert.Equal(t, now.Add(-time.Hour), n.When)
}

func TestMessageSourceEmptyWhenAllRead(t *testing.T) {
	repo := &fakeMessageRepo{messages: []model.Message{
		{ID: "m1", Title: "Old", Read: true},
	}}
	src := NewMessageSource(repo)

	ns, err := src.Collect(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, ns)
}

// A new unread message changes the summary id, so a permanently
// dismissed summary resurfaces for genuinely new mail.
func TestMessageSummaryIDTracksLatest(t *testing.T) {
	now := time.Now()
	repo := &fakeMessageRepo{messages: []model.Message{
		{ID: "m1", Title: "First", Created: now.Add(-time.Hour)},
	}}
	src := NewMessageSource(repo)

	ns, err := src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	firstID := ns[0].ID

	repo.messages = append([]model.Message{
		{ID: "m2", Title: "Second", Created: now},
	}, repo.messages...)

	ns, err = src.Collect(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.NotEqual(t, firstID, ns[0].ID)

	// and the old summary no longer applies
	applies, err := src.StillApplies(context.Background(), Notification{ID: firstID, Kind: KindMessagesUnread}, now)
	require.NoError(t, err)
	assert.False(t, applies)
}

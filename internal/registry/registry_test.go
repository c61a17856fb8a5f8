package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glandu2/rzauth/internal/model"
)

type fakeAuthSession struct {
	aborted bool
}

func (f *fakeAuthSession) Abort() { f.aborted = true }

type fakeGameSession struct {
	kicked []string
}

func (f *fakeGameSession) RequestKick(account string) error {
	f.kicked = append(f.kicked, account)
	return nil
}

func TestTryAddClientInsertsNewEntry(t *testing.T) {
	r := New()
	data := &ClientData{AccountName: "alice", AccountID: 1}

	got, added := r.TryAddClient(data)
	assert.True(t, added)
	assert.Same(t, data, got)
	assert.Equal(t, uint32(1), r.GetClientCount())
}

func TestTryAddClientReturnsExistingOnCollision(t *testing.T) {
	r := New()
	first := &ClientData{AccountName: "alice", AccountID: 1}
	second := &ClientData{AccountName: "alice", AccountID: 1}

	_, added := r.TryAddClient(first)
	require.True(t, added)

	got, added := r.TryAddClient(second)
	assert.False(t, added)
	assert.Same(t, first, got)
	assert.Equal(t, uint32(1), r.GetClientCount(), "collision must not mutate the registry")
}

func TestRemoveClientIsIdempotent(t *testing.T) {
	r := New()
	data := &ClientData{AccountName: "alice"}
	r.TryAddClient(data)

	r.RemoveClient(data)
	assert.Equal(t, uint32(0), r.GetClientCount())

	r.RemoveClient(data) // second call must be a no-op, not panic
	assert.Equal(t, uint32(0), r.GetClientCount())
}

func TestRemoveClientIgnoresStaleEntry(t *testing.T) {
	r := New()
	stale := &ClientData{AccountName: "alice"}
	r.TryAddClient(stale)
	r.RemoveClient(stale)

	fresh := &ClientData{AccountName: "alice"}
	r.TryAddClient(fresh)

	r.RemoveClient(stale) // a delayed removal for the evicted entry
	_, ok := r.GetByAccountName("alice")
	assert.True(t, ok, "stale removal must not evict the newer entry")
}

func TestSwitchClientToServerTransitionsLocation(t *testing.T) {
	r := New()
	auth := &fakeAuthSession{}
	data := &ClientData{AccountName: "alice", Location: model.LocationAuth, AuthSession: auth}
	r.TryAddClient(data)

	r.SwitchClientToServer(data, 7, 0xDEADBEEF)

	assert.Equal(t, model.LocationGame, data.Location)
	assert.Nil(t, data.AuthSession, "auth back-pointer must be nulled on hand-off")
	assert.Equal(t, uint16(7), data.GameServerIdx)
	assert.Equal(t, uint64(0xDEADBEEF), data.OneTimeKey)
}

func TestGetClientCountReflectsInsertsAndRemovals(t *testing.T) {
	r := New()
	assert.Equal(t, uint32(0), r.GetClientCount())

	a := &ClientData{AccountName: "alice"}
	b := &ClientData{AccountName: "bob"}
	r.TryAddClient(a)
	r.TryAddClient(b)
	assert.Equal(t, uint32(2), r.GetClientCount())

	r.RemoveClient(a)
	assert.Equal(t, uint32(1), r.GetClientCount())
}

func TestRemoveByServerIdxSweepsOnlyMatchingGameEntries(t *testing.T) {
	r := New()
	onServer7 := &ClientData{AccountName: "alice", Location: model.LocationGame, GameServerIdx: 7}
	onServer9 := &ClientData{AccountName: "bob", Location: model.LocationGame, GameServerIdx: 9}
	stillInAuth := &ClientData{AccountName: "carol", Location: model.LocationAuth}
	r.TryAddClient(onServer7)
	r.TryAddClient(onServer9)
	r.TryAddClient(stillInAuth)

	removed := r.RemoveByServerIdx(7)

	require.Len(t, removed, 1)
	assert.Same(t, onServer7, removed[0])
	assert.Equal(t, uint32(2), r.GetClientCount())
	_, ok := r.GetByAccountName("alice")
	assert.False(t, ok)
	_, ok = r.GetByAccountName("bob")
	assert.True(t, ok)
	_, ok = r.GetByAccountName("carol")
	assert.True(t, ok)
}

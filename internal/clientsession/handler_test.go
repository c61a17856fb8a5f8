package clientsession

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/dbq"
	"github.com/glandu2/rzauth/internal/directory"
	"github.com/glandu2/rzauth/internal/model"
	"github.com/glandu2/rzauth/internal/registry"
	"github.com/glandu2/rzauth/internal/store"
)

type fakeConn struct {
	closed bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeAccountDef struct {
	veto bool
	rows []model.Account
}

func (f *fakeAccountDef) PreProcess(input *store.AccountInput) bool { return !f.veto }
func (f *fakeAccountDef) Execute(ctx context.Context, input *store.AccountInput) ([]model.Account, error) {
	return f.rows, nil
}
func (f *fakeAccountDef) RowDone(input *store.AccountInput, row model.Account) bool { return true }

type fakeLastServerDef struct{}

func (f *fakeLastServerDef) PreProcess(input *store.UpdateLastServerInput) bool { return true }
func (f *fakeLastServerDef) Execute(ctx context.Context, input *store.UpdateLastServerInput) ([]struct{}, error) {
	return nil, nil
}
func (f *fakeLastServerDef) RowDone(input *store.UpdateLastServerInput, row struct{}) bool { return true }

func newTestHandler(t *testing.T, accountDef dbq.Definition[store.AccountInput, model.Account]) (*Handler, *registry.Registry, *directory.Directory, chan AccountJobResult) {
	t.Helper()
	pool := dbq.NewPool(context.Background(), 2)
	t.Cleanup(func() { pool.Close() })

	reg := registry.New()
	dir := directory.New()
	results := make(chan AccountJobResult, 4)

	cfg := config.Client{MaxPublicServerIdx: 30, EnableImbc: false}
	h := NewHandler(cfg, "salt", reg, dir, pool, accountDef, &fakeLastServerDef{}, results, "deadbeefcafef00dbaadf00d")
	return h, reg, dir, results
}

func TestHandleVersionTestProbe(t *testing.T) {
	h, reg, _, _ := newTestHandler(t, &fakeAccountDef{})
	reg.TryAddClient(&registry.ClientData{AccountName: "alice"})

	sess := NewSession(&fakeConn{}, "1.2.3.4")
	buf := make([]byte, 64)

	n, ok, err := h.HandlePacket(sess, constants.PacketVersion, []byte("TEST"), buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(1)^constants.VersionXORMask, binary.LittleEndian.Uint32(buf[:4]))
	assert.Equal(t, 8, n)
}

func TestHandleVersionEpochSwitch(t *testing.T) {
	h, _, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	buf := make([]byte, 64)

	n, ok, err := h.HandlePacket(sess, constants.PacketVersion, []byte("Creer"), buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
	assert.Equal(t, constants.Epic2, sess.epoch)
}

func TestHandleRSAPublicKeyRoundTrip(t *testing.T) {
	h, _, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	payload := make([]byte, 4+len(pemBytes))
	binary.LittleEndian.PutUint32(payload, uint32(len(payload)))
	copy(payload[4:], pemBytes)

	buf := make([]byte, 512)
	n, ok, err := h.HandlePacket(sess, constants.PacketRSAPublicKey, payload, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Greater(t, n, 4)
	assert.True(t, sess.useRsaAuth)

	encryptedSize := binary.LittleEndian.Uint32(buf[:4])
	decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, priv, buf[4:4+encryptedSize])
	require.NoError(t, err)
	assert.Equal(t, sess.aesKeyIV[:], decrypted)
}

func TestHandleRSAPublicKeyWrongStateAborts(t *testing.T) {
	h, _, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	sess.state = StateAuthenticated

	_, ok, err := h.HandlePacket(sess, constants.PacketRSAPublicKey, []byte{0, 0, 0, 0}, make([]byte, 16))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleAccountRejectsIMBCWhenDisabled(t *testing.T) {
	h, _, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	payload := accountPayload("alice")
	buf := make([]byte, 64)

	n, ok, err := h.HandlePacket(sess, constants.PacketIMBCAccount, payload, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, constants.ResultAccessDenied, int32(binary.LittleEndian.Uint32(buf[:4])))
	assert.Greater(t, n, 0)
}

func TestHandleAccountRejectsSecondJobWhileInFlight(t *testing.T) {
	h, _, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	sess.dbJobInFlight = true
	buf := make([]byte, 64)

	n, ok, err := h.HandlePacket(sess, constants.PacketAccount, accountPayload("alice"), buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, n, 0)
	assert.Equal(t, constants.ResultClientSideError, int32(binary.LittleEndian.Uint32(buf[:4])))
}

func TestHandleAccountSubmitsJobAndDeliversSuccess(t *testing.T) {
	h, reg, _, results := newTestHandler(t, &fakeAccountDef{rows: []model.Account{{
		AccountID: 42, AuthOK: true, LastLoginServerIdx: 3,
	}}})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	buf := make([]byte, 64)

	_, ok, err := h.HandlePacket(sess, constants.PacketAccount, accountPayload("alice"), buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, sess.dbJobInFlight)
	assert.Equal(t, StateAwaitingAuth, sess.state)

	select {
	case ev := <-results:
		n, ok, err := h.HandleAccountResult(ev.Session, ev.Result, buf)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, constants.ResultOK, int32(binary.LittleEndian.Uint32(buf[:4])))
		assert.Greater(t, n, 0)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DB_Account completion")
	}

	assert.Equal(t, StateAuthenticated, sess.state)
	assert.False(t, sess.dbJobInFlight)
	assert.NotNil(t, sess.Entry)
	assert.Equal(t, uint32(1), reg.GetClientCount())
}

func TestHandleAccountResultBannedNameVetoYieldsNotExist(t *testing.T) {
	h, _, _, results := newTestHandler(t, &fakeAccountDef{veto: true})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	buf := make([]byte, 64)

	_, _, err := h.HandlePacket(sess, constants.PacketAccount, accountPayload("@root"), buf)
	require.NoError(t, err)

	// A vetoed PreProcess yields a zero-row StatusOK result (dbq.Job.run),
	// which HandleAccountResult must map onto NOT_EXIST.
	select {
	case ev := <-results:
		n, ok, err := h.HandleAccountResult(ev.Session, ev.Result, buf)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Greater(t, n, 0)
		assert.Equal(t, constants.ResultNotExist, int32(binary.LittleEndian.Uint32(buf[:4])))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DB_Account completion")
	}
}

func TestHandleAccountResultDuplicateLoginAbortsOldAuthSession(t *testing.T) {
	h, reg, _, _ := newTestHandler(t, &fakeAccountDef{})
	old := NewSession(&fakeConn{}, "9.9.9.9")
	oldEntry := &registry.ClientData{AccountName: "alice", Location: model.LocationAuth, AuthSession: old}
	reg.TryAddClient(oldEntry)

	newSess := NewSession(&fakeConn{}, "1.2.3.4")
	newSess.account = "alice"
	buf := make([]byte, 64)

	n, ok, err := h.HandleAccountResult(newSess, dbq.Result[model.Account]{
		Status: dbq.StatusOK,
		Rows:   []model.Account{{AccountID: 1, AuthOK: true}},
	}, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, n, 0)
	assert.Equal(t, constants.ResultAlreadyExist, int32(binary.LittleEndian.Uint32(buf[:4])))
	assert.Equal(t, StateClosed, old.State(), "old auth session must be aborted")
}

func TestHandleAccountResultDuplicateLoginKicksGameSession(t *testing.T) {
	h, reg, _, _ := newTestHandler(t, &fakeAccountDef{})
	kicked := &fakeGameSession{}
	oldEntry := &registry.ClientData{AccountName: "alice", Location: model.LocationGame, GameSession: kicked}
	reg.TryAddClient(oldEntry)

	newSess := NewSession(&fakeConn{}, "1.2.3.4")
	newSess.account = "alice"
	buf := make([]byte, 64)

	_, _, err := h.HandleAccountResult(newSess, dbq.Result[model.Account]{
		Status: dbq.StatusOK,
		Rows:   []model.Account{{AccountID: 1, AuthOK: true}},
	}, buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, kicked.requested)
	_, stillThere := reg.GetByAccountName("alice")
	assert.True(t, stillThere, "entry must survive until the game server confirms the kick")
}

type fakeGameSession struct {
	requested []string
}

func (f *fakeGameSession) RequestKick(account string) error {
	f.requested = append(f.requested, account)
	return nil
}

func TestHandleServerListFiltersByMaxIdxAndReadiness(t *testing.T) {
	h, _, dir, _ := newTestHandler(t, &fakeAccountDef{})
	dir.Register(&directory.GameData{ServerIdx: 1, MaxPlayers: 100, Ready: true})
	dir.Register(&directory.GameData{ServerIdx: 5, MaxPlayers: 100, Ready: true})
	dir.Register(&directory.GameData{ServerIdx: 31, MaxPlayers: 100, Ready: true})
	dir.Register(&directory.GameData{ServerIdx: 40, MaxPlayers: 100, Ready: true})
	dir.Register(&directory.GameData{ServerIdx: 2, MaxPlayers: 100})
	notReady, _ := dir.GetByIdx(2)
	notReady.Ready = false // simulate a server that hasn't finished its handshake yet

	sess := NewSession(&fakeConn{}, "1.2.3.4")
	sess.state = StateAuthenticated
	sess.serverIdxOffset = 5
	buf := make([]byte, 512)

	n, ok, err := h.HandlePacket(sess, constants.PacketServerList, nil, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, n, 0)

	count := buf[2]
	assert.Equal(t, byte(3), count, "servers {1,5,31} pass maxPublicServerIdx=30+offset=5; 40 and the not-ready one are filtered")
}

func TestHandleServerListEncodesFixedASCIIUnderEpic2(t *testing.T) {
	h, _, dir, _ := newTestHandler(t, &fakeAccountDef{})
	dir.Register(&directory.GameData{ServerIdx: 1, Name: "Bartz", ScreenshotURL: "http://x/1.png", MaxPlayers: 100, Ready: true})

	sess := NewSession(&fakeConn{}, "1.2.3.4")
	sess.state = StateAuthenticated
	sess.epoch = constants.Epic2
	buf := make([]byte, 512)

	n, ok, err := h.HandlePacket(sess, constants.PacketServerList, nil, buf)
	require.NoError(t, err)
	assert.True(t, ok)

	// last_login_server_idx(2) + count(1) + one entry: server_idx(2) + ip(4) + port(4) +
	// is_adult(1) + user_ratio(4) + name(16 fixed) + screenshot_url(32 fixed)
	assert.Equal(t, 3+2+4+4+1+4+16+32, n)

	nameField := buf[3+2+4+4+1+4 : 3+2+4+4+1+4+16]
	assert.Equal(t, "Bartz", string(nameField[:5]))
	assert.Equal(t, byte(0), nameField[5], "fixed field is NUL-padded ASCII, not UTF-16LE")
}

func TestHandleServerListWrongStateAborts(t *testing.T) {
	h, _, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")

	_, ok, err := h.HandlePacket(sess, constants.PacketServerList, nil, make([]byte, 64))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleSelectServerHappyPath(t *testing.T) {
	h, reg, dir, _ := newTestHandler(t, &fakeAccountDef{})
	dir.Register(&directory.GameData{ServerIdx: 5})

	sess := NewSession(&fakeConn{}, "1.2.3.4")
	sess.state = StateAuthenticated
	entry, _ := reg.TryAddClient(&registry.ClientData{AccountName: "alice", Location: model.LocationAuth})
	sess.Entry = entry

	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, 5)
	buf := make([]byte, 64)

	n, ok, err := h.HandlePacket(sess, constants.PacketSelectServer, payload, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, n, 0)
	assert.Equal(t, StateHandedOff, sess.state)
	assert.Nil(t, sess.Entry)
	assert.Equal(t, model.LocationGame, entry.Location)
	assert.Equal(t, uint16(5), entry.GameServerIdx)
}

func TestHandleSelectServerUnknownIdxAborts(t *testing.T) {
	h, reg, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	sess.state = StateAuthenticated
	entry, _ := reg.TryAddClient(&registry.ClientData{AccountName: "alice"})
	sess.Entry = entry

	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, 99)

	_, ok, err := h.HandlePacket(sess, constants.PacketSelectServer, payload, make([]byte, 64))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleDisconnectRemovesOwnedRegistryEntry(t *testing.T) {
	h, reg, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")
	entry, added := reg.TryAddClient(&registry.ClientData{AccountName: "alice", Location: model.LocationAuth, AuthSession: sess})
	require.True(t, added)
	sess.Entry = entry

	h.HandleDisconnect(sess)

	assert.Equal(t, uint32(0), reg.GetClientCount())
	assert.Nil(t, sess.Entry)
}

func TestHandleDisconnectNoopWithoutOwnedEntry(t *testing.T) {
	h, reg, _, _ := newTestHandler(t, &fakeAccountDef{})
	sess := NewSession(&fakeConn{}, "1.2.3.4")

	require.NotPanics(t, func() { h.HandleDisconnect(sess) })
	assert.Equal(t, uint32(0), reg.GetClientCount())
}

// accountPayload builds a well-formed, unencrypted TS_CA_ACCOUNT payload:
// a 14-byte NUL-padded login plus a non-empty password block whose length
// isn't one of the fixed DES sizes, decoding to AccountEncryptionNone.
func accountPayload(login string) []byte {
	payload := make([]byte, 14+9)
	copy(payload, login)
	return payload
}

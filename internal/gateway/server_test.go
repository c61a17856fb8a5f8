package gateway

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glandu2/rzauth/internal/clientsession"
	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/dbq"
	"github.com/glandu2/rzauth/internal/directory"
	"github.com/glandu2/rzauth/internal/gssession"
	"github.com/glandu2/rzauth/internal/model"
	"github.com/glandu2/rzauth/internal/registry"
	"github.com/glandu2/rzauth/internal/store"
	"github.com/glandu2/rzauth/internal/wire"
)

// fakeAccountDef stands in for a live Postgres connection, same discipline
// as clientsession/handler_test.go's fakeAccountDef.
type fakeAccountDef struct{}

func (fakeAccountDef) PreProcess(input *store.AccountInput) bool { return true }

func (fakeAccountDef) Execute(ctx context.Context, input *store.AccountInput) ([]model.Account, error) {
	return []model.Account{{AccountID: 7, Login: input.Account, AuthOK: true}}, nil
}

func (fakeAccountDef) RowDone(input *store.AccountInput, row model.Account) bool { return true }

type fakeLastServerDef struct{}

func (fakeLastServerDef) PreProcess(input *store.UpdateLastServerInput) bool { return true }
func (fakeLastServerDef) Execute(ctx context.Context, input *store.UpdateLastServerInput) ([]struct{}, error) {
	return nil, nil
}
func (fakeLastServerDef) RowDone(input *store.UpdateLastServerInput, row struct{}) bool { return true }

type fakeSecurityDef struct{ exists bool }

func (f fakeSecurityDef) PreProcess(input *store.SecurityCheckInput) bool { return true }
func (f fakeSecurityDef) Execute(ctx context.Context, input *store.SecurityCheckInput) ([]store.SecurityCheckOutput, error) {
	return []store.SecurityCheckOutput{{Exists: f.exists}}, nil
}
func (f fakeSecurityDef) RowDone(input *store.SecurityCheckInput, row store.SecurityCheckOutput) bool {
	return true
}

// newTestServer builds a Server the same way NewServer does, substituting
// fakes for the three store.Definition collaborators so the test never
// touches a real database — mirrors clientsession/handler_test.go and
// gssession/handler_test.go's newTestHandler helpers.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg := registry.New()
	dir := directory.New()
	pool := dbq.NewPool(context.Background(), 2)
	t.Cleanup(func() { pool.Close() })

	accountResults := make(chan clientsession.AccountJobResult, 8)
	securityResults := make(chan gssession.SecurityJobResult, 8)

	clientCfg := config.Client{MaxPublicServerIdx: 30, EnableImbc: false}
	gameCfg := config.Game{MaxPlayers: 5000}

	clientHandler := clientsession.NewHandler(
		clientCfg, "salt", reg, dir, pool, fakeAccountDef{}, fakeLastServerDef{}, accountResults, "deadbeefcafef00dbaadf00d",
	)
	gsHandler := gssession.NewHandler(gameCfg, reg, dir, pool, fakeSecurityDef{exists: true}, securityResults)

	sendPool := wire.NewBytePool(constants.DefaultSendBufSize)
	readPool := wire.NewBytePool(constants.DefaultReadBufSize)

	return &Server{
		cfg:           config.Config{Auth: config.Auth{Client: clientCfg, Game: gameCfg}},
		reg:           reg,
		dir:           dir,
		pool:          pool,
		clientHandler: clientHandler,
		gsHandler:     gsHandler,
		el:            newEventLoop(clientHandler, gsHandler, sendPool, accountResults, securityResults),
		flood:         newFloodGuard(clientCfg),
		sendPool:      sendPool,
		readPool:      readPool,
	}
}

// runServerOnListener starts sv's dispatcher and accept loop for ln without
// going through Run's config-driven net.Listen — lets tests supply an
// ephemeral-port listener directly, la2go's testutil.ListenTCP style.
func runServerOnListener(t *testing.T, sv *Server, ln net.Listener, handle func(context.Context, net.Conn)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go sv.el.run(ctx)
	go acceptLoop(ctx, ln, handle)
}

func readFrame(t *testing.T, conn net.Conn) wire.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, constants.DefaultReadBufSize)
	frame, err := wire.ReadFrame(conn, buf)
	require.NoError(t, err)
	return frame
}

func writeFrame(t *testing.T, conn net.Conn, id uint16, payload []byte) {
	t.Helper()
	buf := make([]byte, constants.FrameHeaderSize+len(payload))
	copy(buf[constants.FrameHeaderSize:], payload)
	require.NoError(t, wire.WriteFrame(conn, buf, id, len(payload)))
}

func TestClientVersionTestProbeRoundTrips(t *testing.T) {
	sv := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	runServerOnListener(t, sv, ln, sv.handleClientConnection)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	writeFrame(t, conn, constants.PacketVersion, []byte("TEST"))

	reply := readFrame(t, conn)
	assert.Equal(t, constants.PacketSCResult, reply.ID)
	value := binary.LittleEndian.Uint32(reply.Payload[0:4])
	assert.Equal(t, uint32(0)^constants.VersionXORMask, value)
}

// TestClientAccountLoginFlow drives VERSION → ACCOUNT → SERVER_LIST →
// SELECT_SERVER end to end through the real dispatcher, checking that each
// reply carries the id clientReplyID maps its request to.
func TestClientAccountLoginFlow(t *testing.T) {
	sv := newTestServer(t)
	sv.dir.Register(&directory.GameData{ServerIdx: 1, Name: "test", IP: "127.0.0.1", Port: 7777})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	runServerOnListener(t, sv, ln, sv.handleClientConnection)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	writeFrame(t, conn, constants.PacketVersion, []byte("200609280"))

	writeFrame(t, conn, constants.PacketAccount, accountPayload("alice"))

	reply := readFrame(t, conn)
	assert.Equal(t, constants.PacketACResult, reply.ID)
	result := int32(binary.LittleEndian.Uint32(reply.Payload[0:4]))
	assert.Equal(t, constants.ResultOK, result)

	writeFrame(t, conn, constants.PacketServerList, nil)
	reply = readFrame(t, conn)
	assert.Equal(t, constants.PacketACServerList, reply.ID)

	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, 1)
	writeFrame(t, conn, constants.PacketSelectServer, payload)
	reply = readFrame(t, conn)
	assert.Equal(t, constants.PacketACSelectServer, reply.ID)
}

// accountPayload builds a TS_CA_ACCOUNT legacy-DES-layout frame: a
// 14-byte NUL-padded login field followed by one 8-byte DES block, matching
// internal/wire.DecodeAccount's accountLayoutLegacyDESLen branch. The
// password bytes are never inspected by fakeAccountDef.
func accountPayload(login string) []byte {
	payload := make([]byte, 14+8)
	copy(payload, login)
	return payload
}

package clientsession

import (
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/glandu2/rzauth/internal/clientsession/clientpackets"
	"github.com/glandu2/rzauth/internal/clientsession/serverpackets"
	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/cryptox"
	"github.com/glandu2/rzauth/internal/dbq"
	"github.com/glandu2/rzauth/internal/directory"
	"github.com/glandu2/rzauth/internal/model"
	"github.com/glandu2/rzauth/internal/registry"
	"github.com/glandu2/rzauth/internal/store"
	"github.com/glandu2/rzauth/internal/wire"
)

// AccountJobResult is the DB_Account completion event handed back to the
// event-loop thread (spec.md §4.B "receives exactly one callback on the
// event-loop thread"). Handler.handleAccount spawns one short-lived
// goroutine per submitted job that waits on job.Done and relays it here,
// so the central dispatcher never has to select across an unbounded set
// of per-session channels directly.
type AccountJobResult struct {
	Session *Session
	Result  dbq.Result[model.Account]
}

// Handler dispatches decoded client frames for every session (spec.md
// §4.E). One Handler is shared by all client sessions; all its state is
// either immutable after construction or reached only through the
// registry/directory, so it carries the same single-thread discipline as
// its collaborators.
//
// Grounded on internal/login/handler.go (la2go) for the per-opcode
// dispatch shape and the (n, ok, err) reply convention.
type Handler struct {
	cfg        config.Client
	salt       string
	reg        *registry.Registry
	dir        *directory.Directory
	pool       *dbq.Pool
	accountDef dbq.Definition[store.AccountInput, model.Account]
	lastSrvDef dbq.Definition[store.UpdateLastServerInput, struct{}]

	accountResults chan<- AccountJobResult

	infoValue uint32
}

// NewHandler wires a Handler to its collaborators. buildSHA is the
// deployment's git commit hash; hex digits [8:16] are parsed once into
// infoValue, matching spec.md §4.E.1's "idempotent; hex-parse is
// memoized" requirement for the VERSION "INFO" probe.
func NewHandler(
	cfg config.Client,
	salt string,
	reg *registry.Registry,
	dir *directory.Directory,
	pool *dbq.Pool,
	accountDef dbq.Definition[store.AccountInput, model.Account],
	lastSrvDef dbq.Definition[store.UpdateLastServerInput, struct{}],
	accountResults chan<- AccountJobResult,
	buildSHA string,
) *Handler {
	return &Handler{
		cfg:            cfg,
		salt:           salt,
		reg:            reg,
		dir:            dir,
		pool:           pool,
		accountDef:     accountDef,
		lastSrvDef:     lastSrvDef,
		accountResults: accountResults,
		infoValue:      parseInfoValue(buildSHA),
	}
}

func parseInfoValue(buildSHA string) uint32 {
	if len(buildSHA) < 16 {
		return 0 ^ constants.VersionXORMask
	}
	n, err := strconv.ParseUint(buildSHA[8:16], 16, 32)
	if err != nil {
		return 0 ^ constants.VersionXORMask
	}
	return uint32(n) ^ constants.VersionXORMask
}

// HandlePacket decodes and dispatches one client→auth frame (spec.md §4.A
// "The codec emits a typed view; it never allocates beyond a single
// framing buffer per session"). id and payload come from an already
// length-framed wire.Frame; buf is the caller's reusable send buffer. The
// returned (n, ok) follows the teacher's own HandlePacket convention: n
// bytes were written to buf (0 = nothing to send), ok reports whether the
// connection stays open.
func (h *Handler) HandlePacket(sess *Session, id uint16, payload, buf []byte) (int, bool, error) {
	if wire.IsHeartbeat(id) {
		return 0, true, nil
	}

	kind := wire.Lookup(sess.epoch, id)
	switch kind {
	case wire.KindVersion:
		return h.handleVersion(sess, payload, buf)
	case wire.KindRSAPublicKey:
		return h.handleRSAPublicKey(sess, payload, buf)
	case wire.KindAccount, wire.KindIMBCAccount:
		return h.handleAccount(sess, kind, payload, buf)
	case wire.KindServerList:
		return h.handleServerList(sess, buf)
	case wire.KindSelectServer:
		return h.handleSelectServer(sess, payload, buf)
	default:
		slog.Debug("unknown client packet", "id", id, "epoch", sess.epoch, "ip", sess.IP())
		return 0, true, nil
	}
}

// handleVersion implements spec.md §4.E.1.
func (h *Handler) handleVersion(sess *Session, payload, buf []byte) (int, bool, error) {
	version, err := clientpackets.DecodeVersion(payload)
	if err != nil {
		slog.Debug("malformed VERSION payload", "err", err, "ip", sess.IP())
		return 0, true, nil
	}

	switch {
	case version == "TEST":
		value := h.reg.GetClientCount() ^ constants.VersionXORMask
		return serverpackets.SCResult(buf, value, constants.ResultOK), true, nil
	case version == "INFO":
		return serverpackets.SCResult(buf, h.infoValue, constants.ResultOK), true, nil
	case strings.HasPrefix(version, "200609280") || strings.HasPrefix(version, "Creer"):
		sess.epoch = constants.Epic2
		return 0, true, nil
	default:
		return 0, true, nil
	}
}

// handleRSAPublicKey implements spec.md §4.E.2. Valid only before login;
// any other state is a protocol violation and aborts.
func (h *Handler) handleRSAPublicKey(sess *Session, payload, buf []byte) (int, bool, error) {
	if sess.state != StateUnversioned && sess.state != StateAwaitingAuth {
		slog.Warn("RSA_PUBLIC_KEY in wrong state", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	pemBytes, err := clientpackets.DecodeRSAPublicKey(payload, uint32(constants.FrameHeaderSize+len(payload)), constants.FrameHeaderSize)
	if err != nil {
		slog.Warn("RSA_PUBLIC_KEY key_size mismatch", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	pub, err := cryptox.ImportRSAPublicKeyPEM(pemBytes)
	if err != nil {
		slog.Warn("RSA_PUBLIC_KEY import failed", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	aesKeyIV, err := cryptox.GenerateAESKeyIV()
	if err != nil {
		slog.Error("generating AES key/IV", "err", err)
		return 0, false, nil
	}

	encrypted, err := cryptox.RSAEncryptPKCS1(pub, aesKeyIV[:])
	if err != nil {
		slog.Error("RSA-encrypting AES key/IV", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	sess.rsaPub = pub
	sess.aesKeyIV = aesKeyIV
	sess.useRsaAuth = true

	return serverpackets.ACAESKeyIV(buf, encrypted), true, nil
}

// handleAccount implements spec.md §4.E.3's ACCOUNT/IMBC_ACCOUNT branch:
// decode, veto an already-in-flight job or disabled IMBC, then launch
// DB_Account asynchronously.
func (h *Handler) handleAccount(sess *Session, kind wire.Kind, payload, buf []byte) (int, bool, error) {
	if sess.dbJobInFlight {
		return serverpackets.ACResult(buf, constants.ResultClientSideError, 0, 0), true, nil
	}

	if kind == wire.KindIMBCAccount && !h.cfg.EnableImbc {
		return serverpackets.ACResult(buf, constants.ResultAccessDenied, 0, 0), true, nil
	}

	decoded, err := wire.DecodeAccount(payload, sess.useRsaAuth)
	if err != nil {
		slog.Warn("malformed ACCOUNT payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	input := sess.buildAccountInput(decoded.Login, decoded.PasswordCipher, decoded.Encryption, h.salt)
	job := dbq.NewJob[store.AccountInput, model.Account](input, h.accountDef)

	if err := dbq.Submit(h.pool, job); err != nil {
		slog.Error("submitting DB_Account job", "err", err, "account", decoded.Login)
		return serverpackets.ACResult(buf, constants.ResultClientSideError, 0, 0), true, nil
	}

	sess.dbJobInFlight = true
	sess.account = decoded.Login
	sess.state = StateAwaitingAuth

	go func() {
		result := <-job.Done
		h.accountResults <- AccountJobResult{Session: sess, Result: result}
	}()

	return 0, true, nil
}

// HandleAccountResult processes a DB_Account completion delivered through
// the accountResults channel (spec.md §4.E.3 "On job completion"). Called
// only from the event-loop thread, same as HandlePacket.
func (h *Handler) HandleAccountResult(sess *Session, result dbq.Result[model.Account], buf []byte) (int, bool, error) {
	sess.dbJobInFlight = false

	if result.Status == dbq.StatusCanceled {
		return 0, true, nil
	}
	if result.Status == dbq.StatusDbError {
		slog.Warn("DB_Account query failed", "err", result.Err, "account", sess.account)
		return serverpackets.ACResult(buf, constants.ResultNotExist, 0, 0), true, nil
	}

	if len(result.Rows) != 1 {
		return serverpackets.ACResult(buf, constants.ResultNotExist, 0, 0), true, nil
	}
	acc := result.Rows[0]

	if !acc.AuthOK {
		return serverpackets.ACResult(buf, constants.ResultNotExist, 0, 0), true, nil
	}
	if acc.Block {
		return serverpackets.ACResult(buf, constants.ResultAccessDenied, 0, 0), true, nil
	}
	if sess.Entry != nil {
		slog.Info("AC_RESULT arrived with a ClientData already attached", "account", sess.account)
		return serverpackets.ACResult(buf, constants.ResultClientSideError, 0, 0), true, nil
	}

	candidate := &registry.ClientData{
		AccountID:       acc.AccountID,
		AccountName:     sess.account,
		RemoteIP:        sess.ip,
		Age:             acc.Age,
		EventCode:       acc.EventCode,
		PCBang:          acc.PCBang,
		ServerIdxOffset: acc.ServerIdxOffset,
		Location:        model.LocationAuth,
		AuthSession:     sess,
	}

	entry, added := h.reg.TryAddClient(candidate)
	if !added {
		slog.Info("duplicate login", "account", sess.account, "existingLocation", entry.Location)
		h.evictOldClient(entry)
		return serverpackets.ACResult(buf, constants.ResultAlreadyExist, 0, 0), true, nil
	}

	sess.Entry = entry
	sess.lastLoginServerIdx = acc.LastLoginServerIdx
	sess.serverIdxOffset = acc.ServerIdxOffset
	sess.state = StateAuthenticated

	return serverpackets.ACResult(buf, constants.ResultOK, constants.LoginFlagEULAAccepted, 0), true, nil
}

// HandleDisconnect implements spec.md §4.E's "Disconnect handling: on any
// disconnect (initiated by either side), if a ClientData remains owned by
// this session, remove it from the registry." Safe to call whether or not
// the session ever reached StateAuthenticated; sess.Entry is nil for every
// state before that and after SELECT_SERVER hands it off.
func (h *Handler) HandleDisconnect(sess *Session) {
	if sess.Entry == nil {
		return
	}
	h.reg.RemoveClient(sess.Entry)
	sess.Entry = nil
}

// evictOldClient runs the duplicate-login eviction policy of spec.md
// §4.E.3 scenarios S3/S4: abort an auth-attached session outright; dispatch
// a kick request to a game-attached one and leave the entry in place for
// the game server's own CLIENT_LOGOUT/CLIENT_KICK_FAILED to remove it;
// otherwise the entry is stale and is dropped directly.
func (h *Handler) evictOldClient(old *registry.ClientData) {
	switch old.Location {
	case model.LocationAuth:
		if old.AuthSession != nil {
			old.AuthSession.Abort()
			return
		}
		h.reg.RemoveClient(old)
	case model.LocationGame:
		if old.GameSession != nil {
			if err := old.GameSession.RequestKick(old.AccountName); err != nil {
				slog.Warn("dispatching kick request for duplicate login failed", "account", old.AccountName, "err", err)
			}
			return
		}
		h.reg.RemoveClient(old)
	default:
		h.reg.RemoveClient(old)
	}
}

// handleServerList implements spec.md §4.E.4: a filtered snapshot of the
// directory, encoded per the session's declared epoch.
func (h *Handler) handleServerList(sess *Session, buf []byte) (int, bool, error) {
	if sess.state != StateAuthenticated {
		slog.Warn("SERVER_LIST before authentication", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	maxIdx := uint32(h.cfg.MaxPublicServerIdx) + sess.serverIdxOffset

	all := h.dir.GetServerList()
	entries := make([]serverpackets.ServerEntry, 0, len(all))
	for _, g := range all {
		if !g.Ready {
			continue
		}
		if uint32(g.ServerIdx) > maxIdx {
			continue
		}
		entries = append(entries, serverpackets.ServerEntry{
			ServerIdx:     g.ServerIdx,
			IP:            net.ParseIP(g.IP),
			Port:          int32(g.Port),
			Name:          g.Name,
			IsAdult:       g.IsAdult,
			ScreenshotURL: g.ScreenshotURL,
			UserRatio:     g.UserRatio(),
		})
	}

	return serverpackets.ACServerList(buf, entries, sess.lastLoginServerIdx, sess.epoch), true, nil
}

// handleSelectServer implements spec.md §4.E.5: mint a one-time key, fire
// the fire-and-forget DB_UpdateLastServerIdx job, hand the client off to
// the chosen game server, and reply with the key under whichever cipher
// the session negotiated.
func (h *Handler) handleSelectServer(sess *Session, payload, buf []byte) (int, bool, error) {
	if sess.state != StateAuthenticated || sess.Entry == nil {
		slog.Warn("SELECT_SERVER before authentication", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	serverIdx, err := clientpackets.DecodeSelectServer(payload)
	if err != nil {
		slog.Warn("malformed SELECT_SERVER payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	if _, ok := h.dir.GetByIdx(serverIdx); !ok {
		slog.Warn("SELECT_SERVER for unknown server_idx", "serverIdx", serverIdx, "ip", sess.IP())
		return 0, false, nil
	}

	oneTimeKey, err := cryptox.GenerateOneTimeKey()
	if err != nil {
		slog.Error("generating one-time key", "err", err)
		return 0, false, nil
	}

	job := dbq.NewJob[store.UpdateLastServerInput, struct{}](
		store.UpdateLastServerInput{AccountID: sess.Entry.AccountID, ServerIdx: serverIdx},
		h.lastSrvDef,
	)
	if err := dbq.Submit(h.pool, job); err != nil {
		slog.Warn("submitting DB_UpdateLastServerIdx job", "err", err, "account", sess.account)
	}

	entry := sess.Entry
	h.reg.SwitchClientToServer(entry, serverIdx, uint64(oneTimeKey))
	sess.Entry = nil
	sess.state = StateHandedOff

	if sess.useRsaAuth {
		encrypted, err := cryptox.EncryptAES128CBC(sess.aesKeyIV.Key(), sess.aesKeyIV.IV(), oneTimeKey.Bytes())
		if err != nil {
			slog.Error("AES-encrypting one-time key", "err", err, "ip", sess.IP())
			return 0, false, nil
		}
		return serverpackets.ACSelectServerRSA(buf, encrypted, 0), true, nil
	}

	return serverpackets.ACSelectServer(buf, oneTimeKey.Bytes(), constants.ResultOK, 0), true, nil
}

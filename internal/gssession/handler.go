package gssession

import (
	"log/slog"

	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/dbq"
	"github.com/glandu2/rzauth/internal/directory"
	"github.com/glandu2/rzauth/internal/gssession/clientpackets"
	"github.com/glandu2/rzauth/internal/gssession/serverpackets"
	"github.com/glandu2/rzauth/internal/model"
	"github.com/glandu2/rzauth/internal/registry"
	"github.com/glandu2/rzauth/internal/store"
	"github.com/glandu2/rzauth/internal/wire"
)

// SecurityJobResult is the DB_SecurityNoCheck completion event handed back
// to the event-loop thread, mirroring clientsession.AccountJobResult.
type SecurityJobResult struct {
	Session *Session
	Account string
	Result  dbq.Result[store.SecurityCheckOutput]
}

// Handler dispatches decoded game-server frames for every session (spec.md
// §4.F). One Handler is shared by all game-server sessions, reaching the
// same registry and directory the client session FSM uses.
//
// Grounded on internal/gslistener/handler.go (la2go) for the per-opcode
// dispatch shape and the (n, ok, err) reply convention.
type Handler struct {
	cfg         config.Game
	reg         *registry.Registry
	dir         *directory.Directory
	pool        *dbq.Pool
	securityDef dbq.Definition[store.SecurityCheckInput, store.SecurityCheckOutput]

	securityResults chan<- SecurityJobResult
}

// NewHandler wires a Handler to its collaborators.
func NewHandler(
	cfg config.Game,
	reg *registry.Registry,
	dir *directory.Directory,
	pool *dbq.Pool,
	securityDef dbq.Definition[store.SecurityCheckInput, store.SecurityCheckOutput],
	securityResults chan<- SecurityJobResult,
) *Handler {
	return &Handler{
		cfg:             cfg,
		reg:             reg,
		dir:             dir,
		pool:            pool,
		securityDef:     securityDef,
		securityResults: securityResults,
	}
}

// HandlePacket decodes and dispatches one game-server→auth frame. Game
// servers don't negotiate a protocol epoch the way clients do (spec.md
// §4.F has no VERSION-style probe), so every lookup runs the EpicLatest
// table — which, per internal/wire's dispatchTable, carries the same
// id→kind mapping as every other epoch in this protocol generation.
func (h *Handler) HandlePacket(sess *Session, id uint16, payload, buf []byte) (int, bool, error) {
	if wire.IsHeartbeat(id) {
		return 0, true, nil
	}

	kind := wire.Lookup(constants.EpicLatest, id)
	switch kind {
	case wire.KindGALogin:
		return h.handleLogin(sess, payload, buf)
	case wire.KindGAAccountList:
		return h.handleAccountList(sess, payload)
	case wire.KindGAClientLogin:
		return h.handleClientLogin(sess, payload, buf)
	case wire.KindGAClientLogout:
		return h.handleClientLogout(sess, payload)
	case wire.KindGAClientKickFailed:
		return h.handleClientKickFailed(sess, payload)
	case wire.KindGASecurityNoCheck:
		return h.handleSecurityNoCheck(sess, payload)
	case wire.KindGALogout:
		return h.handleLogout(sess)
	default:
		slog.Debug("unknown game-server packet", "id", id, "ip", sess.IP())
		return 0, true, nil
	}
}

// handleLogin implements spec.md §4.F's LOGIN branch. A directory
// collision is resolved by hex_id: a match means a live connection already
// owns this index (our directory only ever holds a row for a currently
// connected game server, unlike the teacher's DB-backed table that
// persists across disconnects — see DESIGN.md), a mismatch is either
// rejected or, with AcceptAlternate, reassigned to the first free index.
func (h *Handler) handleLogin(sess *Session, payload, buf []byte) (int, bool, error) {
	if sess.state != StateAwaitingLogin {
		slog.Warn("LOGIN in wrong state", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	var pkt clientpackets.Login
	if err := pkt.Parse(payload); err != nil {
		slog.Warn("malformed LOGIN payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	maxPlayers := pkt.MaxPlayers
	if h.cfg.MaxPlayers > 0 && uint32(maxPlayers) > uint32(h.cfg.MaxPlayers) {
		maxPlayers = uint16(h.cfg.MaxPlayers)
	}

	data := &directory.GameData{
		ServerIdx:  pkt.ServerIdx,
		Name:       pkt.Name,
		IP:         sess.IP(),
		Port:       pkt.Port,
		IsAdult:    pkt.IsAdult,
		HexID:      pkt.HexID,
		MaxPlayers: maxPlayers,
		Session:    sess,
	}

	assignedIdx := pkt.ServerIdx
	if _, exists := h.dir.GetByIdx(pkt.ServerIdx); exists {
		if h.dir.ValidateHexID(pkt.ServerIdx, pkt.HexID) {
			slog.Warn("LOGIN duplicate server_idx", "serverIdx", pkt.ServerIdx, "ip", sess.IP())
			return serverpackets.LoginResult(buf, serverpackets.LoginResultDuplicateIndex, 0), false, nil
		}
		if !pkt.AcceptAlternate {
			slog.Warn("LOGIN wrong hex_id", "serverIdx", pkt.ServerIdx, "ip", sess.IP())
			return serverpackets.LoginResult(buf, serverpackets.LoginResultWrongHexID, 0), false, nil
		}
		idx, ok := h.dir.RegisterFirstAvailable(data)
		if !ok {
			slog.Warn("LOGIN no free server_idx", "ip", sess.IP())
			return serverpackets.LoginResult(buf, constants.GSLoginNoFreeID, 0), false, nil
		}
		assignedIdx = idx
	} else if !h.dir.Register(data) {
		slog.Warn("LOGIN lost registration race", "serverIdx", pkt.ServerIdx, "ip", sess.IP())
		return serverpackets.LoginResult(buf, serverpackets.LoginResultDuplicateIndex, 0), false, nil
	}

	sess.serverIdx = assignedIdx
	sess.state = StateRegistered

	slog.Info("game server registered", "serverIdx", assignedIdx, "name", pkt.Name, "ip", sess.IP())
	return serverpackets.LoginResult(buf, serverpackets.LoginResultOK, assignedIdx), true, nil
}

// handleAccountList implements spec.md §4.F's ACCOUNT_LIST branch: a
// reconciliation of accounts the game server believes are connected. An
// account whose registry entry doesn't exist yet (the client's hand-off
// hasn't landed) is simply left alone rather than buffered for a later
// retry — the game server repeats ACCOUNT_LIST periodically, so the next
// round reconciles it once CLIENT_LOGIN has run.
func (h *Handler) handleAccountList(sess *Session, payload []byte) (int, bool, error) {
	if sess.state != StateRegistered {
		slog.Warn("ACCOUNT_LIST in wrong state", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	var pkt clientpackets.AccountList
	if err := pkt.Parse(payload); err != nil {
		slog.Warn("malformed ACCOUNT_LIST payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	for _, acctInfo := range pkt.Accounts {
		entry, ok := h.reg.GetByAccountName(acctInfo.Account)
		if !ok {
			continue
		}
		entry.Location = model.LocationGame
		entry.GameServerIdx = sess.serverIdx
		entry.GameSession = sess
	}

	return 0, true, nil
}

// handleClientLogin implements spec.md §4.F's CLIENT_LOGIN branch: verify
// the one-time key and target server match the registry's record of the
// hand-off, then reply with the account profile.
func (h *Handler) handleClientLogin(sess *Session, payload, buf []byte) (int, bool, error) {
	if sess.state != StateRegistered {
		slog.Warn("CLIENT_LOGIN in wrong state", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	var pkt clientpackets.ClientLogin
	if err := pkt.Parse(payload); err != nil {
		slog.Warn("malformed CLIENT_LOGIN payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	entry, ok := h.reg.GetByAccountName(pkt.Account)
	if !ok || entry.Location != model.LocationGame ||
		entry.GameServerIdx != sess.serverIdx || entry.OneTimeKey != pkt.OneTimeKey {
		slog.Warn("CLIENT_LOGIN mismatch", "account", pkt.Account, "serverIdx", sess.serverIdx, "ip", sess.IP())
		return serverpackets.ClientLoginExtended(buf, pkt.Account, constants.ResultAccessDenied, serverpackets.ClientLoginProfile{}), true, nil
	}

	profile := serverpackets.ClientLoginProfile{
		AccountID: entry.AccountID,
		Age:       entry.Age,
		PCBang:    entry.PCBang,
	}
	return serverpackets.ClientLoginExtended(buf, pkt.Account, constants.ResultOK, profile), true, nil
}

// handleClientLogout implements spec.md §4.F's CLIENT_LOGOUT branch.
func (h *Handler) handleClientLogout(sess *Session, payload []byte) (int, bool, error) {
	var pkt clientpackets.ClientLogout
	if err := pkt.Parse(payload); err != nil {
		slog.Warn("malformed CLIENT_LOGOUT payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	if entry, ok := h.reg.GetByAccountName(pkt.Account); ok {
		h.reg.RemoveClient(entry)
	}
	return 0, true, nil
}

// handleClientKickFailed implements spec.md §4.F's CLIENT_KICK_FAILED
// branch: the game-side kick request failed, so fall back to dropping our
// own record rather than leaving a stale entry forever (scenario S4).
func (h *Handler) handleClientKickFailed(sess *Session, payload []byte) (int, bool, error) {
	var pkt clientpackets.ClientKickFailed
	if err := pkt.Parse(payload); err != nil {
		slog.Warn("malformed CLIENT_KICK_FAILED payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	if entry, ok := h.reg.GetByAccountName(pkt.Account); ok {
		h.reg.RemoveClient(entry)
	}
	return 0, true, nil
}

// handleSecurityNoCheck implements spec.md §4.F's SECURITY_NO_CHECK
// branch: fire the DB_SecurityNoCheck job asynchronously and relay its
// single completion through securityResults, same discipline as
// clientsession.Handler.handleAccount.
func (h *Handler) handleSecurityNoCheck(sess *Session, payload []byte) (int, bool, error) {
	if sess.state != StateRegistered {
		slog.Warn("SECURITY_NO_CHECK in wrong state", "state", sess.state, "ip", sess.IP())
		return 0, false, nil
	}

	var pkt clientpackets.SecurityNoCheck
	if err := pkt.Parse(payload); err != nil {
		slog.Warn("malformed SECURITY_NO_CHECK payload", "err", err, "ip", sess.IP())
		return 0, false, nil
	}

	job := dbq.NewJob[store.SecurityCheckInput, store.SecurityCheckOutput](
		store.SecurityCheckInput{Account: pkt.Account}, h.securityDef,
	)
	if err := dbq.Submit(h.pool, job); err != nil {
		slog.Error("submitting DB_SecurityNoCheck job", "err", err, "account", pkt.Account)
		return 0, true, nil
	}

	account := pkt.Account
	go func() {
		result := <-job.Done
		h.securityResults <- SecurityJobResult{Session: sess, Account: account, Result: result}
	}()

	return 0, true, nil
}

// HandleSecurityResult processes a DB_SecurityNoCheck completion delivered
// through securityResults. Called only from the event-loop thread, same as
// HandlePacket.
func (h *Handler) HandleSecurityResult(ev SecurityJobResult, buf []byte) (int, bool, error) {
	if ev.Result.Status != dbq.StatusOK || len(ev.Result.Rows) != 1 {
		return serverpackets.SecurityNoCheck(buf, ev.Account, constants.ResultNotExist), true, nil
	}

	result := constants.ResultNotExist
	if ev.Result.Rows[0].Exists {
		result = constants.ResultOK
	}
	return serverpackets.SecurityNoCheck(buf, ev.Account, result), true, nil
}

// handleLogout implements spec.md §4.F's LOGOUT branch: remove every
// registry entry attached to this server, then close.
func (h *Handler) handleLogout(sess *Session) (int, bool, error) {
	removed := h.reg.RemoveByServerIdx(sess.serverIdx)
	slog.Info("game server logged out", "serverIdx", sess.serverIdx, "clientsRemoved", len(removed))
	return 0, false, nil
}

// HandleDisconnect implements spec.md §4.F's "On disconnect: remove the
// directory entry and sweep any registry entries pointing at this
// server_idx." Unlike LOGOUT, this runs with no packet to reply to — it is
// the event loop's teardown hook for every closing connection, including
// one that just sent LOGOUT (handleLogout leaves the directory entry for
// this hook to remove).
func (h *Handler) HandleDisconnect(sess *Session) {
	if sess.state != StateRegistered {
		return
	}
	h.dir.Remove(sess.serverIdx)
	removed := h.reg.RemoveByServerIdx(sess.serverIdx)
	slog.Info("game server disconnected", "serverIdx", sess.serverIdx, "clientsRemoved", len(removed))
}

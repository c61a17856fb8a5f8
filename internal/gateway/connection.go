package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/glandu2/rzauth/internal/clientsession"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/gssession"
	"github.com/glandu2/rzauth/internal/wire"
)

// clientConn pairs an accepted client connection with its session FSM and
// its own reusable send buffer. Only the event-loop goroutine ever reads
// sess's fields or writes through conn — see the eventLoop type's doc
// comment in eventloop.go.
type clientConn struct {
	conn    net.Conn
	sess    *clientsession.Session
	sendBuf []byte
}

// gsConn is clientConn's game-server counterpart.
type gsConn struct {
	conn    net.Conn
	sess    *gssession.Session
	sendBuf []byte
}

// clientReplyID maps a decoded client→auth request id to the auth→client
// reply id the matching Handler method writes into its buffer (spec.md
// §4.A: "the packet id itself belongs in the frame header ... not in this
// payload" — serverpackets.SCResult's doc comment). SELECT_SERVER is the
// one request whose reply id depends on session state rather than the
// request id alone: RSA-negotiated sessions get the RSA-wrapped variant.
func clientReplyID(reqID uint16, sess *clientsession.Session) uint16 {
	switch reqID {
	case constants.PacketVersion:
		return constants.PacketSCResult
	case constants.PacketRSAPublicKey:
		return constants.PacketACAESKeyIV
	case constants.PacketAccount, constants.PacketIMBCAccount:
		return constants.PacketACResult
	case constants.PacketServerList:
		return constants.PacketACServerList
	case constants.PacketSelectServer:
		if sess.UseRsaAuth() {
			return constants.PacketACSelectServerRSA
		}
		return constants.PacketACSelectServer
	default:
		return 0
	}
}

// gsReplyID is clientReplyID's game-server counterpart.
func gsReplyID(reqID uint16) uint16 {
	switch reqID {
	case constants.PacketGALogin:
		return constants.PacketAGLoginResult
	case constants.PacketGAClientLogin:
		return constants.PacketAGClientLoginExt
	case constants.PacketGASecurityNoCheck:
		return constants.PacketAGSecurityNoCheck
	default:
		return 0
	}
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

// acceptLoop is grounded on internal/login/server.go's acceptLoop (la2go):
// accept until the listener closes or ctx is canceled, handing each
// connection to its own goroutine.
func acceptLoop(ctx context.Context, ln net.Listener, handle func(context.Context, net.Conn)) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			slog.Error("accept failed", "err", err, "addr", ln.Addr())
			continue
		}
		go handle(ctx, conn)
	}
}

// handleClientConnection reads framed client packets one at a time,
// funneling each as a clientPacketEvent into the event loop and blocking on
// its done signal before issuing the next read (spec.md §5: "Packets from
// a single client are processed in receive order"). Blocking on done also
// protects readBuf from being overwritten while the event loop still has a
// Frame aliasing it.
func (sv *Server) handleClientConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	ip := remoteIP(conn)
	sess := clientsession.NewSession(conn, ip)
	cc := &clientConn{conn: conn, sess: sess, sendBuf: sv.sendPool.Get(constants.DefaultSendBufSize)}

	// cc.sendBuf is returned to sv.sendPool by unregisterClientEvent's own
	// processing, not here: a DB_Account completion can still be in flight
	// after this goroutine's read loop exits, and must not find its reply
	// buffer already handed to an unrelated connection.
	sv.el.events <- registerClientEvent{cc: cc}
	defer func() { sv.el.events <- unregisterClientEvent{cc: cc} }()

	readBuf := sv.readPool.Get(constants.DefaultReadBufSize)
	defer sv.readPool.Put(readBuf)

	slog.Debug("client connected", "ip", ip)

	for {
		frame, err := wire.ReadFrame(conn, readBuf)
		if err != nil {
			return
		}

		done := make(chan struct{})
		sv.el.events <- clientPacketEvent{cc: cc, id: frame.ID, payload: frame.Payload, done: done}

		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// handleGSConnection is handleClientConnection's game-server counterpart.
func (sv *Server) handleGSConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	ip := remoteIP(conn)
	sess := gssession.NewSession(conn, ip)
	gc := &gsConn{conn: conn, sess: sess, sendBuf: sv.sendPool.Get(constants.DefaultSendBufSize)}

	sv.el.events <- registerGSEvent{gc: gc}
	defer func() { sv.el.events <- unregisterGSEvent{gc: gc} }()

	readBuf := sv.readPool.Get(constants.DefaultReadBufSize)
	defer sv.readPool.Put(readBuf)

	slog.Debug("game server connected", "ip", ip)

	for {
		frame, err := wire.ReadFrame(conn, readBuf)
		if err != nil {
			return
		}

		done := make(chan struct{})
		sv.el.events <- gsPacketEvent{gc: gc, id: frame.ID, payload: frame.Payload, done: done}

		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// writeReply frames and writes a handler's reply payload, grounded on
// internal/login/server.go's WritePacket(conn, enc, sendBuf, n) call —
// minus the Blowfish step, which belongs to the out-of-scope framed
// transport (spec.md §1).
func writeReply(conn net.Conn, sendBuf []byte, id uint16, n int) error {
	if err := wire.WriteFrame(conn, sendBuf, id, n); err != nil {
		return fmt.Errorf("writing reply frame %#x: %w", id, err)
	}
	return nil
}

package gateway

import (
	"context"
	"log/slog"

	"github.com/glandu2/rzauth/internal/clientsession"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/gssession"
	"github.com/glandu2/rzauth/internal/wire"
)

// event is one unit of work handed to the single dispatcher goroutine
// spec.md §5 requires: "A single event-loop thread owns all session state,
// the registry, the directory, and all packet-dispatch callbacks. There is
// exactly one such thread; no user code accesses session or registry
// fields off it."
type event interface {
	process(el *eventLoop)
}

type registerClientEvent struct{ cc *clientConn }

func (e registerClientEvent) process(el *eventLoop) {
	el.clientConns[e.cc.sess] = e.cc
}

type unregisterClientEvent struct{ cc *clientConn }

func (e unregisterClientEvent) process(el *eventLoop) {
	delete(el.clientConns, e.cc.sess)
	el.clientHandler.HandleDisconnect(e.cc.sess)
	el.sendPool.Put(e.cc.sendBuf)
}

type registerGSEvent struct{ gc *gsConn }

func (e registerGSEvent) process(el *eventLoop) {
	el.gsConns[e.gc.sess] = e.gc
}

type unregisterGSEvent struct{ gc *gsConn }

func (e unregisterGSEvent) process(el *eventLoop) {
	delete(el.gsConns, e.gc.sess)
	el.gsHandler.HandleDisconnect(e.gc.sess)
	el.sendPool.Put(e.gc.sendBuf)
}

type clientPacketEvent struct {
	cc      *clientConn
	id      uint16
	payload []byte
	done    chan struct{}
}

func (e clientPacketEvent) process(el *eventLoop) {
	defer close(e.done)

	buf := e.cc.sendBuf[constants.FrameHeaderSize:]
	n, ok, err := el.clientHandler.HandlePacket(e.cc.sess, e.id, e.payload, buf)
	if err != nil {
		slog.Warn("handling client packet", "id", e.id, "ip", e.cc.sess.IP(), "err", err)
	}
	if n > 0 {
		if werr := writeReply(e.cc.conn, e.cc.sendBuf, clientReplyID(e.id, e.cc.sess), n); werr != nil {
			slog.Debug("writing client reply", "err", werr, "ip", e.cc.sess.IP())
			ok = false
		}
	}
	if !ok {
		e.cc.sess.Abort()
	}
}

type gsPacketEvent struct {
	gc      *gsConn
	id      uint16
	payload []byte
	done    chan struct{}
}

func (e gsPacketEvent) process(el *eventLoop) {
	defer close(e.done)

	buf := e.gc.sendBuf[constants.FrameHeaderSize:]
	n, ok, err := el.gsHandler.HandlePacket(e.gc.sess, e.id, e.payload, buf)
	if err != nil {
		slog.Warn("handling game-server packet", "id", e.id, "ip", e.gc.sess.IP(), "err", err)
	}
	if n > 0 {
		if werr := writeReply(e.gc.conn, e.gc.sendBuf, gsReplyID(e.id), n); werr != nil {
			slog.Debug("writing game-server reply", "err", werr, "ip", e.gc.sess.IP())
			ok = false
		}
	}
	if !ok {
		el.gsHandler.HandleDisconnect(e.gc.sess)
		e.gc.sess.Close()
	}
}

// eventLoop is spec.md §5's single thread. Everything it touches —
// clientConns, gsConns, the two Handlers, and transitively the registry and
// directory they share — is reached only from run's goroutine.
//
// Grounded on golang.org/x/sync/errgroup's supervised-goroutine idiom
// (cmd/gameserver/main.go), generalized into a fan-in dispatcher: many
// per-connection goroutines (internal/gateway/connection.go) do nothing but
// blocking reads and send decoded frames here, so this is the only code
// that ever mutates session, registry, or directory state.
type eventLoop struct {
	clientHandler *clientsession.Handler
	gsHandler     *gssession.Handler

	clientConns map[*clientsession.Session]*clientConn
	gsConns     map[*gssession.Session]*gsConn

	sendPool *wire.BytePool

	events          chan event
	accountResults  chan clientsession.AccountJobResult
	securityResults chan gssession.SecurityJobResult
}

func newEventLoop(
	clientHandler *clientsession.Handler,
	gsHandler *gssession.Handler,
	sendPool *wire.BytePool,
	accountResults chan clientsession.AccountJobResult,
	securityResults chan gssession.SecurityJobResult,
) *eventLoop {
	return &eventLoop{
		clientHandler:   clientHandler,
		gsHandler:       gsHandler,
		clientConns:     make(map[*clientsession.Session]*clientConn),
		gsConns:         make(map[*gssession.Session]*gsConn),
		sendPool:        sendPool,
		events:          make(chan event, 256),
		accountResults:  accountResults,
		securityResults: securityResults,
	}
}

// run is the one goroutine the whole package funnels into. It never
// returns early on a single bad connection: only ctx cancellation or the
// owning Server shutting down stops it.
func (el *eventLoop) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-el.events:
			ev.process(el)
		case r := <-el.accountResults:
			el.processAccountResult(r)
		case r := <-el.securityResults:
			el.processSecurityResult(r)
		}
	}
}

// processAccountResult delivers a completed DB_Account job (spec.md §4.B
// "completion is posted back to the event-loop thread"). A map miss means
// the session already disconnected — the job's effect becomes a no-op
// w.r.t. the dead session, per spec.md §5's cancellation contract, without
// needing an explicit Job.Cancel() call.
func (el *eventLoop) processAccountResult(r clientsession.AccountJobResult) {
	cc, ok := el.clientConns[r.Session]
	if !ok {
		return
	}

	buf := cc.sendBuf[constants.FrameHeaderSize:]
	n, stillOK, err := el.clientHandler.HandleAccountResult(r.Session, r.Result, buf)
	if err != nil {
		slog.Warn("handling DB_Account result", "ip", r.Session.IP(), "err", err)
	}
	if n > 0 {
		if werr := writeReply(cc.conn, cc.sendBuf, constants.PacketACResult, n); werr != nil {
			slog.Debug("writing AC_RESULT", "err", werr, "ip", r.Session.IP())
			stillOK = false
		}
	}
	if !stillOK {
		r.Session.Abort()
	}
}

// processSecurityResult is processAccountResult's game-server counterpart,
// delivering a completed DB_SecurityNoCheck job.
func (el *eventLoop) processSecurityResult(r gssession.SecurityJobResult) {
	gc, ok := el.gsConns[r.Session]
	if !ok {
		return
	}

	buf := gc.sendBuf[constants.FrameHeaderSize:]
	n, stillOK, err := el.gsHandler.HandleSecurityResult(r, buf)
	if err != nil {
		slog.Warn("handling DB_SecurityNoCheck result", "ip", r.Session.IP(), "err", err)
	}
	if n > 0 {
		if werr := writeReply(gc.conn, gc.sendBuf, constants.PacketAGSecurityNoCheck, n); werr != nil {
			slog.Debug("writing AG_SECURITY_NO_CHECK", "err", werr, "ip", r.Session.IP())
			stillOK = false
		}
	}
	if !stillOK {
		el.gsHandler.HandleDisconnect(r.Session)
		r.Session.Close()
	}
}

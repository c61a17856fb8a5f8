// Package gateway wires the client session FSM, the game-server session
// FSM, the shared registry and directory, and the async DB query layer into
// the single-event-loop runtime spec.md §5 requires, and owns the two TCP
// listeners (spec.md §6 "auth.client", "auth.game").
//
// Grounded on internal/login/server.go (la2go) for the listener/accept-loop
// shape, generalized from "dispatch inline on the per-connection goroutine"
// to "funnel into one dispatcher goroutine" — see eventloop.go's doc
// comment for why that generalization is structural, not cosmetic.
package gateway

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/glandu2/rzauth/internal/clientsession"
	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/dbq"
	"github.com/glandu2/rzauth/internal/directory"
	"github.com/glandu2/rzauth/internal/gssession"
	"github.com/glandu2/rzauth/internal/registry"
	"github.com/glandu2/rzauth/internal/store"
	"github.com/glandu2/rzauth/internal/wire"
)

// dbWorkers sizes the bounded worker pool spec.md §5 describes ("DB
// queries execute on a bounded worker pool"). Neither spec.md nor the
// teacher's config exposes this as a tunable, so it's a fixed constant
// rather than a config.DB field invented for it.
const dbWorkers = 8

// Server owns both listeners and the single dispatcher goroutine that
// processes everything they produce.
type Server struct {
	cfg config.Config
	st  *store.Store

	pool *dbq.Pool
	reg  *registry.Registry
	dir  *directory.Directory

	clientHandler *clientsession.Handler
	gsHandler     *gssession.Handler
	el            *eventLoop

	flood *floodGuard

	sendPool *wire.BytePool
	readPool *wire.BytePool
}

// NewServer wires every collaborator from cfg and an already-opened Store.
// buildSHA feeds clientsession.Handler's VERSION "INFO" probe (spec.md
// §4.E.1).
func NewServer(cfg config.Config, st *store.Store, buildSHA string) *Server {
	reg := registry.New()
	dir := directory.New()
	pool := dbq.NewPool(context.Background(), dbWorkers)

	accountDef := store.NewAccountDefinition(st, cfg.SQL.DBAccount, cfg.Auth.DB.AutoCreateAccounts)
	lastSrvDef := store.NewUpdateLastServerDefinition(st)
	securityDef := store.NewSecurityCheckDefinition(st)

	accountResults := make(chan clientsession.AccountJobResult, 64)
	securityResults := make(chan gssession.SecurityJobResult, 64)

	clientHandler := clientsession.NewHandler(
		cfg.Auth.Client, cfg.Auth.DB.Salt, reg, dir, pool, accountDef, lastSrvDef, accountResults, buildSHA,
	)
	gsHandler := gssession.NewHandler(cfg.Auth.Game, reg, dir, pool, securityDef, securityResults)

	sendPool := wire.NewBytePool(constants.DefaultSendBufSize)
	readPool := wire.NewBytePool(constants.DefaultReadBufSize)

	return &Server{
		cfg:           cfg,
		st:            st,
		pool:          pool,
		reg:           reg,
		dir:           dir,
		clientHandler: clientHandler,
		gsHandler:     gsHandler,
		el:            newEventLoop(clientHandler, gsHandler, sendPool, accountResults, securityResults),
		flood:         newFloodGuard(cfg.Auth.Client),
		sendPool:      sendPool,
		readPool:      readPool,
	}
}

// Run starts both listeners and the dispatcher goroutine, and blocks until
// ctx is canceled or one of them fails — the same errgroup.WithContext
// supervision shape as cmd/gameserver/main.go's run().
func (sv *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sv.el.run(gctx)
	})

	if sv.cfg.Auth.Client.AutoStart {
		clientLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", sv.cfg.Auth.Client.ListenIP, sv.cfg.Auth.Client.Port))
		if err != nil {
			return fmt.Errorf("listening on client port: %w", err)
		}
		g.Go(func() error {
			return guardedAcceptLoop(gctx, clientLn, sv.flood, sv.handleClientConnection)
		})
	}

	if sv.cfg.Auth.Game.AutoStart {
		gsLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", sv.cfg.Auth.Game.ListenIP, sv.cfg.Auth.Game.Port))
		if err != nil {
			return fmt.Errorf("listening on game-server port: %w", err)
		}
		g.Go(func() error {
			return acceptLoop(gctx, gsLn, sv.handleGSConnection)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

// Close stops accepting new DB jobs and drains in-flight workers. Call
// after Run returns.
func (sv *Server) Close() error {
	return sv.pool.Close()
}

// Package integration holds container-backed tests exercising the store
// package against a real PostgreSQL instance, grounded on
// tests/integration/suite_test.go (la2go): same testcontainers-go
// postgres.Run + goose-migrate + short-mode-skip shape.
package integration

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/glandu2/rzauth/internal/store"
)

// StoreSuite is the base suite for every store-backed test: it starts (or
// reuses, via DB_ADDR) a PostgreSQL instance, runs migrations once, and
// opens a store.Store shared by every test in the suite.
type StoreSuite struct {
	suite.Suite
	store     *store.Store
	ctx       context.Context
	container *postgres.PostgresContainer
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()

	dsn := os.Getenv("DB_ADDR")
	if dsn == "" {
		var err error
		s.container, err = postgres.Run(s.ctx,
			"postgres:17-alpine",
			postgres.WithDatabase("rzauth_test"),
			postgres.WithUsername("rzauth"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		if err != nil {
			s.T().Fatalf("failed to start postgres container: %v", err)
		}

		dsn, err = s.container.ConnectionString(s.ctx, "sslmode=disable")
		if err != nil {
			s.T().Fatalf("failed to get connection string: %v", err)
		}
	}

	if err := store.RunMigrations(s.ctx, dsn); err != nil {
		s.T().Fatalf("failed to run migrations: %v", err)
	}

	var err error
	s.store, err = store.Open(s.ctx, dsn)
	if err != nil {
		s.T().Fatalf("failed to open store: %v", err)
	}
}

func (s *StoreSuite) SetupTest() {
	if _, err := s.store.Pool().Exec(s.ctx, "DELETE FROM accounts"); err != nil {
		s.T().Fatalf("failed to clean accounts table: %v", err)
	}
}

func (s *StoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.T().Logf("failed to terminate postgres container: %v", err)
		}
	}
}

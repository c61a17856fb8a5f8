package store

import (
	"context"
	"fmt"
)

// SecurityCheckInput is the DB_SecurityNoCheck job submitted from
// SECURITY_NO_CHECK (spec.md §4.F: "fire a DB query; on completion deliver
// an AG_SECURITY_NO_CHECK response").
type SecurityCheckInput struct {
	Account string
}

// SecurityCheckOutput carries whether the account is known; the game-server
// session maps this onto the AG_SECURITY_NO_CHECK result code.
type SecurityCheckOutput struct {
	Exists bool
}

// SecurityCheckDefinition implements
// dbq.Definition[SecurityCheckInput, SecurityCheckOutput]. Unlike
// DB_Account this query is not schema-retargetable — spec.md §6 only names
// sql.db_account as the configurable block.
type SecurityCheckDefinition struct {
	store *Store
}

func NewSecurityCheckDefinition(s *Store) *SecurityCheckDefinition {
	return &SecurityCheckDefinition{store: s}
}

func (d *SecurityCheckDefinition) PreProcess(input *SecurityCheckInput) bool { return true }

func (d *SecurityCheckDefinition) Execute(ctx context.Context, input *SecurityCheckInput) ([]SecurityCheckOutput, error) {
	var exists bool
	err := d.store.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE login = $1)`, input.Account,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking account %q: %w", input.Account, err)
	}
	return []SecurityCheckOutput{{Exists: exists}}, nil
}

func (d *SecurityCheckDefinition) RowDone(input *SecurityCheckInput, row SecurityCheckOutput) bool {
	return true
}

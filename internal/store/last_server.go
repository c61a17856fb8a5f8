package store

import (
	"context"
	"fmt"
)

// UpdateLastServerInput is the fire-and-forget DB_UpdateLastServerIdx job
// submitted from SELECT_SERVER (spec.md §4.E.5: "Submit a fire-and-forget
// DB_UpdateLastServerIdx(account_id, server_idx)").
type UpdateLastServerInput struct {
	AccountID uint32
	ServerIdx uint16
}

// UpdateLastServerDefinition implements
// dbq.Definition[UpdateLastServerInput, struct{}]. It never vetoes or
// filters: there is no result the caller needs back beyond completion.
type UpdateLastServerDefinition struct {
	store *Store
}

func NewUpdateLastServerDefinition(s *Store) *UpdateLastServerDefinition {
	return &UpdateLastServerDefinition{store: s}
}

func (d *UpdateLastServerDefinition) PreProcess(input *UpdateLastServerInput) bool { return true }

func (d *UpdateLastServerDefinition) Execute(ctx context.Context, input *UpdateLastServerInput) ([]struct{}, error) {
	_, err := d.store.pool.Exec(ctx,
		`UPDATE accounts SET last_login_server_idx = $1 WHERE account_id = $2`,
		input.ServerIdx, input.AccountID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating last server for account %d: %w", input.AccountID, err)
	}
	return nil, nil
}

func (d *UpdateLastServerDefinition) RowDone(input *UpdateLastServerInput, row struct{}) bool { return true }

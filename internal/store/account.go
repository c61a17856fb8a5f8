package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/cryptox"
	"github.com/glandu2/rzauth/internal/model"
)

// Encryption tags which cipher wraps AccountInput.PasswordCipher. Kept as
// its own enum rather than reusing internal/wire's AccountEncryption so this
// package stays free of a protocol-layer import, matching the teacher's own
// db package never importing gslistener/login packet types.
type Encryption int

const (
	EncryptionNone Encryption = iota
	EncryptionDES
	EncryptionAES
)

// AccountInput is the DB_Account job's strongly-typed Input (spec.md §4.B
// "a session submits a DbQueryJob<Definition> with a strongly-typed
// Input"). PasswordHex is filled in by PreProcess, not the caller.
type AccountInput struct {
	Account        string
	PasswordCipher []byte
	Encryption     Encryption
	AESKey         []byte
	AESIV          []byte
	Salt           string

	PasswordHex string
}

// AccountDefinition implements dbq.Definition[AccountInput, model.Account]
// for spec.md §4.E.3's DB_Account query. The query text comes from
// config.DBAccountSchema.Query and is run with the login name as its single
// argument; result columns are scanned by position. Of the configured names,
// only Column.PasswordHash is read: empty selects null-password mode, and
// otherwise it names the column auto-create writes. The Param names and the
// other Column names are not read.
type AccountDefinition struct {
	store              *Store
	schema             config.DBAccountSchema
	autoCreateAccounts bool
}

// NewAccountDefinition builds the DB_Account query definition bound to the
// given schema configuration. autoCreateAccounts wires
// SPEC_FULL.md §4 supplemented feature #1 (la2go's GetOrCreateAccount).
func NewAccountDefinition(s *Store, schema config.DBAccountSchema, autoCreateAccounts bool) *AccountDefinition {
	return &AccountDefinition{store: s, schema: schema, autoCreateAccounts: autoCreateAccounts}
}

// nullPasswordMode reports whether the configured schema has no password
// column — spec.md §4.E.3's "if the DB schema has no password column
// (null-password mode), the row is accepted on name match alone".
func (d *AccountDefinition) nullPasswordMode() bool {
	return d.schema.Column.PasswordHash == ""
}

// PreProcess rejects `@`-prefixed names and derives the salted-MD5-hex
// password parameter from the still-enciphered password, per spec.md §4.B /
// §4.E.3. Decryption failure vetoes the job the same way a banned name
// does: the caller observes NOT_EXIST rather than an abort, since a
// malformed password block is indistinguishable from a wrong one at this
// layer (the protocol-level abort path is for framing/PEM/RSA failures,
// spec.md §7).
func (d *AccountDefinition) PreProcess(input *AccountInput) bool {
	if strings.HasPrefix(input.Account, "@") {
		return false
	}

	var plaintext []byte
	var err error
	switch input.Encryption {
	case EncryptionDES:
		plaintext, err = cryptox.DecryptLegacyDES(input.PasswordCipher)
	case EncryptionAES:
		plaintext, err = cryptox.DecryptAES128CBC(input.AESKey, input.AESIV, input.PasswordCipher)
	default:
		plaintext = input.PasswordCipher
	}
	if err != nil {
		return false
	}

	password := string(bytes.TrimRight(plaintext, "\x00"))
	input.PasswordHex = cryptox.HashPassword(input.Salt, password)
	return true
}

// Execute runs the configured query and scans the configured columns into
// model.Account, auto-creating the row first when autoCreateAccounts is set
// and the account doesn't yet exist.
func (d *AccountDefinition) Execute(ctx context.Context, input *AccountInput) ([]model.Account, error) {
	rows, err := d.query(ctx, input.Account)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 && d.autoCreateAccounts && !d.nullPasswordMode() {
		if err := d.create(ctx, input.Account, input.PasswordHex); err != nil {
			return nil, fmt.Errorf("auto-creating account %q: %w", input.Account, err)
		}
		rows, err = d.query(ctx, input.Account)
		if err != nil {
			return nil, err
		}
	}

	return rows, nil
}

// query binds only the login name: the configured query's WHERE clause
// matches by name alone, and the password comparison itself happens in
// RowDone against the PasswordHash column the query selects.
func (d *AccountDefinition) query(ctx context.Context, account string) ([]model.Account, error) {
	rows, err := d.store.pool.Query(ctx, d.schema.Query, account)
	if err != nil {
		return nil, fmt.Errorf("querying account %q: %w", account, err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var acc model.Account
		if d.nullPasswordMode() {
			err = rows.Scan(&acc.AccountID, &acc.AuthOK, &acc.Age, &acc.LastLoginServerIdx,
				&acc.EventCode, &acc.PCBang, &acc.ServerIdxOffset, &acc.Block)
		} else {
			var passHash string
			err = rows.Scan(&acc.AccountID, &passHash, &acc.AuthOK, &acc.Age, &acc.LastLoginServerIdx,
				&acc.EventCode, &acc.PCBang, &acc.ServerIdxOffset, &acc.Block)
			acc.PasswordHashHex = &passHash
		}
		if err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading account rows: %w", err)
	}
	return out, nil
}

func (d *AccountDefinition) create(ctx context.Context, account, passwordHex string) error {
	_, err := d.store.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO accounts (login, %s) VALUES ($1, $2) ON CONFLICT (login) DO NOTHING`,
			d.schema.Column.PasswordHash),
		account, passwordHex,
	)
	return err
}

// RowDone enforces spec.md §4.E.3's per-row acceptance: null-password mode
// accepts on name match alone (already guaranteed by the WHERE clause);
// otherwise the stored hex hash must equal the one PreProcess derived.
func (d *AccountDefinition) RowDone(input *AccountInput, row model.Account) bool {
	if row.PasswordHashHex == nil {
		return true
	}
	return *row.PasswordHashHex == input.PasswordHex
}

package clientpackets

import (
	"fmt"

	"github.com/glandu2/rzauth/internal/wire"
)

// AccountInfo is one entry of a TS_GA_ACCOUNT_LIST reconciliation payload.
type AccountInfo struct {
	Account string
}

// AccountList is the TS_GA_ACCOUNT_LIST payload (spec.md §4.F
// "reconciliation of accounts the game server believes are logged into
// it").
type AccountList struct {
	Accounts []AccountInfo
}

const maxAccountListEntries = 10000

// Parse decodes a TS_GA_ACCOUNT_LIST payload.
func (p *AccountList) Parse(payload []byte) error {
	r := wire.NewReader(payload)

	count, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("parsing ACCOUNT_LIST: reading count: %w", err)
	}
	if count > maxAccountListEntries {
		return fmt.Errorf("parsing ACCOUNT_LIST: count %d exceeds limit %d", count, maxAccountListEntries)
	}

	p.Accounts = make([]AccountInfo, 0, count)
	for range count {
		account, err := r.ReadString()
		if err != nil {
			return fmt.Errorf("parsing ACCOUNT_LIST: reading account: %w", err)
		}
		p.Accounts = append(p.Accounts, AccountInfo{Account: account})
	}

	return nil
}

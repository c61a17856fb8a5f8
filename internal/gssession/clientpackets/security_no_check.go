package clientpackets

import (
	"fmt"

	"github.com/glandu2/rzauth/internal/wire"
)

// SecurityNoCheck is the TS_GA_SECURITY_NO_CHECK payload (spec.md §4.F
// "SECURITY_NO_CHECK(account, …)" — fires a DB query, reply on
// completion).
type SecurityNoCheck struct {
	Account string
}

// Parse decodes a TS_GA_SECURITY_NO_CHECK payload.
func (p *SecurityNoCheck) Parse(payload []byte) error {
	r := wire.NewReader(payload)
	account, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("parsing SECURITY_NO_CHECK: reading account: %w", err)
	}
	p.Account = account
	return nil
}

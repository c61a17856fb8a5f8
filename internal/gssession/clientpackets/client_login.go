package clientpackets

import (
	"fmt"

	"github.com/glandu2/rzauth/internal/wire"
)

// ClientLogin is the TS_GA_CLIENT_LOGIN payload: a game server reporting a
// client attempting to connect with its one-time key (spec.md §4.F
// "CLIENT_LOGIN(account, one_time_key)").
type ClientLogin struct {
	Account    string
	OneTimeKey uint64
}

// Parse decodes a TS_GA_CLIENT_LOGIN payload.
func (p *ClientLogin) Parse(payload []byte) error {
	r := wire.NewReader(payload)

	account, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("parsing CLIENT_LOGIN: reading account: %w", err)
	}
	p.Account = account

	lo, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("parsing CLIENT_LOGIN: reading one_time_key low: %w", err)
	}
	hi, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("parsing CLIENT_LOGIN: reading one_time_key high: %w", err)
	}
	p.OneTimeKey = uint64(lo) | uint64(hi)<<32

	return nil
}

// ClientLogout is the TS_GA_CLIENT_LOGOUT payload (spec.md §4.F
// "CLIENT_LOGOUT(account)").
type ClientLogout struct {
	Account string
}

// Parse decodes a TS_GA_CLIENT_LOGOUT payload.
func (p *ClientLogout) Parse(payload []byte) error {
	r := wire.NewReader(payload)
	account, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("parsing CLIENT_LOGOUT: reading account: %w", err)
	}
	p.Account = account
	return nil
}

// ClientKickFailed is the TS_GA_CLIENT_KICK_FAILED payload (spec.md §4.F
// "CLIENT_KICK_FAILED(account)").
type ClientKickFailed struct {
	Account string
}

// Parse decodes a TS_GA_CLIENT_KICK_FAILED payload.
func (p *ClientKickFailed) Parse(payload []byte) error {
	r := wire.NewReader(payload)
	account, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("parsing CLIENT_KICK_FAILED: reading account: %w", err)
	}
	p.Account = account
	return nil
}

// Package clientpackets decodes game-server→auth frames for the
// game-server session FSM (spec.md §4.F): LOGIN, ACCOUNT_LIST,
// CLIENT_LOGIN, CLIENT_LOGOUT, CLIENT_KICK_FAILED, SECURITY_NO_CHECK.
//
// Grounded on internal/gslistener/clientpackets (la2go): a Parse method per
// packet type reading through a shared sequential reader. The teacher's
// own internal/gslistener/packet.Reader is generalized into
// internal/wire.Reader so both session FSMs share one decoder.
package clientpackets

import (
	"fmt"

	"github.com/glandu2/rzauth/internal/wire"
)

// Login is the TS_GA_LOGIN payload: a game server's registration request
// (spec.md §4.F "LOGIN(server_idx, name, ip, port, is_adult, …, optional
// guid)").
type Login struct {
	ServerIdx  uint16
	Name       string
	Port       uint16
	MaxPlayers uint16
	IsAdult    bool
	HexID      []byte

	// AcceptAlternate mirrors la2go's GameServerAuth.AcceptAlternate: when
	// ServerIdx collides with a differently-keyed game server, the directory
	// may assign the first free index instead of rejecting the login.
	AcceptAlternate bool
}

const loginHexIDSize = 32

// Parse decodes a TS_GA_LOGIN payload.
func (p *Login) Parse(payload []byte) error {
	r := wire.NewReader(payload)

	serverIdx, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading server_idx: %w", err)
	}
	p.ServerIdx = serverIdx

	name, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading name: %w", err)
	}
	p.Name = name

	port, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading port: %w", err)
	}
	p.Port = port

	maxPlayers, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading max_players: %w", err)
	}
	p.MaxPlayers = maxPlayers

	isAdult, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading is_adult: %w", err)
	}
	p.IsAdult = isAdult != 0

	hexID, err := r.ReadBytes(loginHexIDSize)
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading hex_id: %w", err)
	}
	p.HexID = hexID

	acceptAlternate, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("parsing LOGIN: reading accept_alternate: %w", err)
	}
	p.AcceptAlternate = acceptAlternate != 0

	return nil
}

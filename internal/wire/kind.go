package wire

import "github.com/glandu2/rzauth/internal/constants"

// Kind is the logical packet type a wire id decodes to, independent of
// which of several size-discriminated layouts was actually received
// (spec.md §9 "Packet polymorphism via size").
type Kind int

const (
	KindUnknown Kind = iota
	KindVersion
	KindRSAPublicKey
	KindAccount
	KindIMBCAccount
	KindServerList
	KindSelectServer

	KindGALogin
	KindGALogout
	KindGAAccountList
	KindGAClientLogin
	KindGAClientLogout
	KindGAClientKickFailed
	KindGASecurityNoCheck
)

func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "VERSION"
	case KindRSAPublicKey:
		return "RSA_PUBLIC_KEY"
	case KindAccount:
		return "ACCOUNT"
	case KindIMBCAccount:
		return "IMBC_ACCOUNT"
	case KindServerList:
		return "SERVER_LIST"
	case KindSelectServer:
		return "SELECT_SERVER"
	case KindGALogin:
		return "GA_LOGIN"
	case KindGALogout:
		return "GA_LOGOUT"
	case KindGAAccountList:
		return "GA_ACCOUNT_LIST"
	case KindGAClientLogin:
		return "GA_CLIENT_LOGIN"
	case KindGAClientLogout:
		return "GA_CLIENT_LOGOUT"
	case KindGAClientKickFailed:
		return "GA_CLIENT_KICK_FAILED"
	case KindGASecurityNoCheck:
		return "GA_SECURITY_NO_CHECK"
	default:
		return "UNKNOWN"
	}
}

// dispatchTable replaces the teacher's id→handler switch (internal/login
// /handler.go HandlePacket, internal/gslistener/handler.go) with the
// epoch-indexed table spec.md §9 calls for: "Replace the id→typeid
// conversion with a table [epoch][id] → logical_kind." Every epoch shares
// the same id→kind mapping in this protocol generation; the table is keyed
// by epoch anyway so a future epoch can remap an id without touching
// callers.
var dispatchTable = map[constants.Epoch]map[uint16]Kind{}

func init() {
	base := map[uint16]Kind{
		constants.PacketVersion:      KindVersion,
		constants.PacketRSAPublicKey: KindRSAPublicKey,
		constants.PacketAccount:      KindAccount,
		constants.PacketIMBCAccount:  KindIMBCAccount,
		constants.PacketServerList:   KindServerList,
		constants.PacketSelectServer: KindSelectServer,

		constants.PacketGALogin:            KindGALogin,
		constants.PacketGALogout:           KindGALogout,
		constants.PacketGAAccountList:      KindGAAccountList,
		constants.PacketGAClientLogin:      KindGAClientLogin,
		constants.PacketGAClientLogout:     KindGAClientLogout,
		constants.PacketGAClientKickFailed: KindGAClientKickFailed,
		constants.PacketGASecurityNoCheck:  KindGASecurityNoCheck,
	}

	for _, epoch := range []constants.Epoch{constants.Epic2, constants.Epic4, constants.Epic9_1, constants.EpicLatest} {
		table := make(map[uint16]Kind, len(base))
		for id, kind := range base {
			table[id] = kind
		}
		dispatchTable[epoch] = table
	}
}

// Lookup resolves a wire id to its logical kind for the given epoch.
// Unknown ids resolve to KindUnknown; callers log at debug and drop them
// per spec.md §4.A.
func Lookup(epoch constants.Epoch, id uint16) Kind {
	table, ok := dispatchTable[epoch]
	if !ok {
		return KindUnknown
	}
	kind, ok := table[id]
	if !ok {
		return KindUnknown
	}
	return kind
}

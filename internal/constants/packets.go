package constants

// Client → auth packet ids (TS_CA_*).
const (
	PacketVersion       uint16 = 0x01
	PacketRSAPublicKey  uint16 = 0x02
	PacketAccount       uint16 = 0x03
	PacketIMBCAccount   uint16 = 0x04
	PacketServerList    uint16 = 0x05
	PacketSelectServer  uint16 = 0x06
)

// Auth → client packet ids (TS_AC_*, SC_*).
const (
	PacketSCResult          uint16 = 0x10
	PacketACAESKeyIV        uint16 = 0x11
	PacketACResult          uint16 = 0x12
	PacketACServerList      uint16 = 0x13
	PacketACSelectServer    uint16 = 0x14
	PacketACSelectServerRSA uint16 = 0x15
)

// Game-server ↔ auth packet ids (TS_GA_* / TS_AG_*).
const (
	PacketGALogin             uint16 = 0x20
	PacketAGLoginResult       uint16 = 0x21
	PacketGALogout            uint16 = 0x22
	PacketGAAccountList       uint16 = 0x23
	PacketGAClientLogin       uint16 = 0x24
	PacketAGClientLogin       uint16 = 0x25
	PacketAGClientLoginExt    uint16 = 0x26
	PacketGAClientLogout      uint16 = 0x27
	PacketGAClientKickFailed  uint16 = 0x28
	PacketGASecurityNoCheck   uint16 = 0x29
	PacketAGSecurityNoCheck   uint16 = 0x2A

	// PacketAGKickPlayer is sent unsolicited, outside the request/response
	// flow: auth asks a game server to drop a connected account whose name
	// just won a duplicate-login race elsewhere (spec.md §4.E.3 scenario S4,
	// §4.F "relays kick requests"). The game server's own reply to this is
	// either TS_GA_CLIENT_LOGOUT (kick succeeded) or
	// TS_GA_CLIENT_KICK_FAILED (it didn't).
	PacketAGKickPlayer uint16 = 0x2B
)

// Game-server login-result codes (TS_AG_LOGIN_RESULT).
const (
	GSLoginOK               byte = 0
	GSLoginDuplicateIndex   byte = 1
	GSLoginWrongHexID       byte = 2
	GSLoginReasonReserved   byte = 3
	GSLoginNoFreeID         byte = 4
)

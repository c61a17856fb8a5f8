package serverpackets

// KickPlayer writes the TS_AG_KICK_PLAYER payload: an unsolicited request
// telling a game server to drop a connected account (spec.md §4.E.3
// scenario S4, §4.F "relays kick requests").
func KickPlayer(buf []byte, account string) int {
	return putUTF16LE(buf, account)
}

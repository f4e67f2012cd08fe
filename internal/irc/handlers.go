package irc

// This file contains documentation for the IRC event handlers.
// The actual handler implementations are split across:
// - client.go: Connection lifecycle, PRIVMSG dispatch, nick recovery
// - commands.go: Admin command implementations

/*
Handler Summary:

Connection Events:
- 376/422 (onConnect): End of MOTD / MOTD missing - bot is connected
  - Identifies to NickServ (unless SASL is configured)
  - Joins the configured channels

Messages:
- PRIVMSG (onPrivMsg):
  - Ignores our own messages
  - Channel messages go to the ping responder, which only answers
    messages addressed to our current nick
  - Private messages starting with the command prefix are admin commands
  - Any other private message goes to the ping responder
  - A canned reply is sent with PRIVMSG and appended to replies.txt

Nick Issues:
- 432 (onNickHeld): ERR_ERRONEUSNICKNAME - Nick is held
  - Switches to alternate nick
  - Schedules RELEASE and nick change
- 433 (onNickInUse): ERR_NICKNAMEINUSE - Nick in use
  - Switches to alternate nick
  - Schedules GHOST and nick change

Admin Session:
- 601 (onWatchLogout): RPL_LOGOFF - WATCH notification
  - Auto-logs out admin if they quit/change nick

CTCP:
- CTCP_VERSION: Responds with bot version information
*/

package irc

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"

	"github.com/dalnet/pongbot/internal/config"
	"github.com/dalnet/pongbot/internal/pong"
	"github.com/dalnet/pongbot/internal/storage"
)

// Version information (set at build time or here)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const timestampFormat = "Mon Jan 02, 2006 at 15:04:05 GMT"

// ircConn is the part of *ircevent.Connection the handlers write through.
type ircConn interface {
	Privmsg(target, text string) error
	Send(command string, params ...string) error
	SendRaw(line string) error
	Join(channel string) error
	SetNick(nick string)
	CurrentNick() string
}

// Client represents the IRC bot client
type Client struct {
	conn      *ircevent.Connection
	out       ircConn
	cfg       *config.Config
	logger    *slog.Logger
	responder *pong.Responder

	mu     sync.RWMutex
	ready  bool
	closed bool

	replies []string
	stats   []string

	// Admin session tracking: nick -> is admin
	admins map[string]bool

	now func() time.Time

	// Shutdown/restart callbacks
	OnShutdown func()
	OnRestart  func()
}

// NewClient creates a new IRC client. Pong settings saved in the data dir
// take precedence over the ones in cfg.
func NewClient(cfg *config.Config, logger *slog.Logger, observer pong.Observer) (*Client, error) {
	conn := &ircevent.Connection{
		Server:       fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		Nick:         cfg.Nick,
		User:         cfg.Username,
		RealName:     cfg.IRCName,
		Password:     cfg.ServerPass,
		QuitMessage:  "Shutting down",
		UseTLS:       cfg.TLS,
		UseSASL:      cfg.SASLLogin != "",
		SASLLogin:    cfg.SASLLogin,
		SASLPassword: cfg.SASLPassword,
	}
	if cfg.TLS {
		conn.TLSConfig = &tls.Config{
			ServerName:         cfg.Server,
			InsecureSkipVerify: cfg.TLSInsecure,
		}
	}

	c, err := newClient(cfg, conn, logger, observer)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.registerHandlers()
	return c, nil
}

func newClient(cfg *config.Config, out ircConn, logger *slog.Logger, observer pong.Observer) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		out:    out,
		cfg:    cfg,
		logger: logger.With("component", "irc"),
		admins: make(map[string]bool),
		now:    time.Now,
	}

	settings := cfg.Pong
	saved, found, err := storage.LoadSettings(cfg.DataDir)
	switch {
	case err != nil:
		c.logger.Warn("could not load saved settings, using config file", "error", err)
	case found:
		if verr := saved.Validate(); verr != nil {
			c.logger.Warn("saved settings are invalid, using config file", "error", verr)
		} else {
			settings = saved
		}
	}

	c.responder, err = pong.NewResponder(settings, pong.WithObserver(observer))
	if err != nil {
		return nil, fmt.Errorf("failed to create responder: %w", err)
	}

	c.replies, err = storage.LoadReplies(cfg.DataDir)
	if err != nil {
		c.logger.Warn("could not load reply history", "error", err)
	}
	c.stats, err = storage.LoadStats(cfg.DataDir)
	if err != nil {
		c.logger.Warn("could not load command log", "error", err)
	}

	return c, nil
}

func (c *Client) registerHandlers() {
	// Connected (end of MOTD)
	c.conn.AddCallback("376", c.onConnect)
	c.conn.AddCallback("422", c.onConnect) // MOTD missing is also "connected"

	c.conn.AddCallback("PRIVMSG", c.onPrivMsg)

	// Nick issues
	c.conn.AddCallback("432", c.onNickHeld)  // ERR_ERRONEUSNICKNAME
	c.conn.AddCallback("433", c.onNickInUse) // ERR_NICKNAMEINUSE

	// WATCH logout notification
	c.conn.AddCallback("601", c.onWatchLogout) // RPL_LOGOFF

	c.conn.AddCallback("CTCP_VERSION", c.onCtcpVersion)
}

// Responder exposes the ping responder, e.g. for status checks.
func (c *Client) Responder() *pong.Responder {
	return c.responder
}

// Ready reports whether registration finished and we have not quit.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready && !c.closed
}

// Connect initiates the IRC connection
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Loop runs the IRC event loop (blocking)
func (c *Client) Loop() {
	c.conn.Loop()
}

// Quit disconnects from IRC
func (c *Client) Quit(message string) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if c.conn == nil {
		return
	}
	c.conn.QuitMessage = message
	c.conn.Quit()
}

func (c *Client) onConnect(e ircmsg.Message) {
	c.logger.Info("connected to IRC server", "server", e.Source)

	// Identify to NickServ unless SASL already did
	if c.cfg.NickPass != "" && c.cfg.SASLLogin == "" {
		c.out.Privmsg("NickServ", fmt.Sprintf("IDENTIFY %s %s", c.cfg.Nick, c.cfg.NickPass))
	}

	for _, ch := range c.cfg.Channels {
		if err := c.out.Join(ch); err != nil {
			c.logger.Warn("join failed", "channel", ch, "error", err)
		}
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()

	c.logger.Info("bot initialization complete", "nick", c.out.CurrentNick(), "channels", c.cfg.Channels)
}

func (c *Client) onPrivMsg(e ircmsg.Message) {
	if len(e.Params) < 2 {
		return
	}

	target := e.Params[0]
	message := e.Params[1]
	nick := e.Nick()
	own := c.out.CurrentNick()
	if nick == "" || strings.EqualFold(nick, own) {
		return
	}

	if !strings.EqualFold(target, own) {
		c.respond(pong.Event{Sender: nick, Channel: target, Text: message, OwnNick: own})
		return
	}

	if c.isCommand(message) {
		hostmask := nick
		if nuh, err := e.NUH(); err == nil {
			hostmask = nuh.Canonical()
		}
		c.handleCommand(nick, hostmask, message)
		return
	}
	c.respond(pong.Event{Sender: nick, Text: message, OwnNick: own})
}

func (c *Client) isCommand(message string) bool {
	prefix := c.cfg.CommandPrefix
	if prefix == "" || !strings.HasPrefix(message, prefix) {
		return false
	}
	return len(strings.Fields(message[len(prefix):])) > 0
}

func (c *Client) respond(ev pong.Event) {
	action := c.responder.Handle(ev)
	if action.Kind != pong.Send {
		c.logger.Debug("no reply", "nick", ev.Sender, "channel", ev.Channel, "reason", action.Reason)
		return
	}

	if err := c.out.Privmsg(action.Target, action.Text); err != nil {
		c.logger.Warn("failed to send reply", "target", action.Target, "error", err)
		return
	}

	where := ev.Channel
	if where == "" {
		where = "private"
	}
	c.logger.Info("answered contentless ping", "nick", ev.Sender, "where", where, "target", action.Target)

	timestamp := c.now().UTC().Format(timestampFormat)
	entry := fmt.Sprintf("[%s] %s (%s): %s", timestamp, ev.Sender, where, ev.Text)

	c.mu.Lock()
	c.replies = storage.AddReply(c.replies, entry)
	replies := c.replies
	c.mu.Unlock()

	if err := storage.SaveReplies(c.cfg.DataDir, replies); err != nil {
		c.logger.Error("error saving reply history", "error", err)
	}
}

func (c *Client) onNickHeld(e ircmsg.Message) {
	c.recoverNick("RELEASE")
}

func (c *Client) onNickInUse(e ircmsg.Message) {
	c.recoverNick("GHOST")
}

// recoverNick switches to the alternate nick and, with a NickServ password,
// tries to take the primary back.
func (c *Client) recoverNick(nickServCmd string) {
	if c.out.CurrentNick() == c.cfg.Alternate {
		return
	}
	c.logger.Warn("nick unavailable, switching to alternate", "nick", c.cfg.Nick, "alternate", c.cfg.Alternate)
	c.out.SetNick(c.cfg.Alternate)

	if c.cfg.NickPass == "" {
		return
	}
	go func() {
		time.Sleep(15 * time.Second)
		c.out.Privmsg("NickServ", fmt.Sprintf("%s %s %s", nickServCmd, c.cfg.Nick, c.cfg.NickPass))
		time.Sleep(2 * time.Second)
		c.out.SetNick(c.cfg.Nick)
	}()
}

func (c *Client) onWatchLogout(e ircmsg.Message) {
	// 601 <me> <nick> <user> <host> <timestamp> :logged out
	if len(e.Params) < 2 {
		return
	}
	nick := e.Params[1]

	c.mu.Lock()
	wasAdmin := c.admins[nick]
	delete(c.admins, nick)
	c.mu.Unlock()

	if wasAdmin {
		c.logger.Info("admin session ended", "nick", nick)
	}
	c.out.SendRaw(fmt.Sprintf("WATCH -%s", nick))
}

func (c *Client) onCtcpVersion(e ircmsg.Message) {
	nick := e.Nick()
	reply := fmt.Sprintf("pongbot %s (built %s, commit %s)", Version, BuildDate, GitCommit)
	c.out.SendRaw(fmt.Sprintf("NOTICE %s :\x01VERSION %s\x01", nick, reply))
}

func (c *Client) logCommand(hostmask, command string) {
	timestamp := c.now().UTC().Format(timestampFormat)
	entry := fmt.Sprintf("%s: %s -> %s", timestamp, hostmask, command)

	c.mu.Lock()
	c.stats = storage.AddStat(c.stats, entry)
	stats := c.stats
	c.mu.Unlock()

	if err := storage.SaveStats(c.cfg.DataDir, stats); err != nil {
		c.logger.Error("error saving command log", "error", err)
	}
}

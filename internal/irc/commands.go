package irc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalnet/pongbot/internal/storage"
)

type command struct {
	name  string
	args  string
	desc  string
	admin bool
	run   func(c *Client, nick, hostmask, args string)
}

// commands in the order help lists them
var commands []command

func init() {
	commands = []command{
		{"help", "[command]", "list commands, or show usage for one", false, (*Client).cmdHelp},
		{"version", "", "show bot version information", false, (*Client).cmdVersion},
		{"login", "<password>", "start an admin session", false, (*Client).cmdLogin},
		{"logout", "", "end your admin session", true, (*Client).cmdLogout},
		{"status", "", "show whether auto-replies are on and the current settings", true, (*Client).cmdStatus},
		{"enable", "", "turn auto-replies on", true, (*Client).cmdEnable},
		{"disable", "", "turn auto-replies off", true, (*Client).cmdDisable},
		{"set", "<message|channel_message|pattern|cooldown|reply_in_channel> <value>", "change one setting (pattern - clears it)", true, (*Client).cmdSet},
		{"phrase", "<add|del|list> [phrase]", "edit the exact phrases treated as contentless", true, (*Client).cmdPhrase},
		{"reset", "", "restore the settings from the config file", true, (*Client).cmdReset},
		{"history", "[count]", "show the last canned replies sent (default 10)", true, (*Client).cmdHistory},
		{"nick", "<newnick>", "change my nick", true, (*Client).cmdNick},
		{"restart", "", "restart the bot", true, (*Client).cmdRestart},
		{"shutdown", "", "shut the bot down", true, (*Client).cmdShutdown},
	}
}

func lookupCommand(name string) (command, bool) {
	if name == "su" {
		name = "login"
	}
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// handleCommand processes a private message that starts with the command prefix
func (c *Client) handleCommand(nick, hostmask, message string) {
	body := strings.TrimSpace(strings.TrimPrefix(message, c.cfg.CommandPrefix))
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := strings.TrimSpace(body[len(fields[0]):])

	cmd, ok := lookupCommand(name)
	if !ok {
		c.reply(nick, "Unknown command %q. Try %shelp", name, c.cfg.CommandPrefix)
		return
	}
	if cmd.admin && !c.isAdmin(nick) {
		c.reply(nick, "Sorry, only my admins can use %s%s", c.cfg.CommandPrefix, cmd.name)
		c.logCommand(hostmask, fmt.Sprintf("tried %s but wasn't logged in", cmd.name))
		return
	}
	cmd.run(c, nick, hostmask, args)
}

func (c *Client) reply(nick, format string, args ...any) {
	if err := c.out.Privmsg(nick, fmt.Sprintf(format, args...)); err != nil {
		c.logger.Warn("failed to send command reply", "nick", nick, "error", err)
	}
}

func (c *Client) isAdmin(nick string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admins[nick]
}

func (c *Client) showUsage(nick string, cmd command) {
	c.reply(nick, "%s%s %s - %s", c.cfg.CommandPrefix, cmd.name, cmd.args, cmd.desc)
}

func (c *Client) cmdHelp(nick, hostmask, args string) {
	if args != "" {
		name := strings.ToLower(strings.TrimPrefix(strings.Fields(args)[0], c.cfg.CommandPrefix))
		cmd, ok := lookupCommand(name)
		if !ok {
			c.reply(nick, "Unknown command %q.", name)
			return
		}
		c.showUsage(nick, cmd)
		return
	}

	isAdmin := c.isAdmin(nick)
	c.reply(nick, "Available commands:")
	for _, cmd := range commands {
		if !cmd.admin {
			c.showUsage(nick, cmd)
		}
	}
	if !isAdmin {
		return
	}
	c.reply(nick, " ")
	c.reply(nick, "Admin commands:")
	for _, cmd := range commands {
		if cmd.admin {
			c.showUsage(nick, cmd)
		}
	}
}

func (c *Client) cmdVersion(nick, hostmask, args string) {
	c.reply(nick, "pongbot version %s", Version)
	c.reply(nick, "Built: %s", BuildDate)
	c.reply(nick, "Commit: %s", GitCommit)
}

func (c *Client) cmdLogin(nick, hostmask, args string) {
	password := args
	if password == "" {
		c.reply(nick, "Usage: %slogin <password>", c.cfg.CommandPrefix)
		return
	}

	if c.cfg.AdminPass == "" || password != c.cfg.AdminPass {
		c.reply(nick, "Password incorrect")
		c.logCommand(hostmask, "INCORRECT LOGIN ATTEMPT")
		return
	}

	c.mu.Lock()
	c.admins[nick] = true
	c.mu.Unlock()

	c.out.Send("WATCH", "+"+nick)
	c.reply(nick, "Password accepted, you are now an admin. Type %shelp for a list of admin-only commands", c.cfg.CommandPrefix)
	c.logCommand(hostmask, "successful login")
}

func (c *Client) cmdLogout(nick, hostmask, args string) {
	c.mu.Lock()
	delete(c.admins, nick)
	c.mu.Unlock()

	c.out.Send("WATCH", "-"+nick)
	c.reply(nick, "You have been logged out")
	c.logCommand(hostmask, "logged out")
}

func (c *Client) cmdStatus(nick, hostmask, args string) {
	c.logCommand(hostmask, "status")
	for _, line := range c.responder.Status().Lines() {
		c.reply(nick, "%s", line)
	}
}

func (c *Client) cmdEnable(nick, hostmask, args string) {
	c.responder.SetEnabled(true)
	c.saveSettings(nick, hostmask, "enabled auto-replies")
	c.reply(nick, "Auto-replies enabled")
}

func (c *Client) cmdDisable(nick, hostmask, args string) {
	c.responder.SetEnabled(false)
	c.saveSettings(nick, hostmask, "disabled auto-replies")
	c.reply(nick, "Auto-replies disabled")
}

func (c *Client) cmdSet(nick, hostmask, args string) {
	key, value, _ := strings.Cut(args, " ")
	key = strings.ToLower(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		c.reply(nick, "Usage: %sset <message|channel_message|pattern|cooldown|reply_in_channel> <value>", c.cfg.CommandPrefix)
		return
	}

	switch key {
	case "message":
		c.responder.SetMessage(value)
	case "channel_message":
		c.responder.SetChannelMessage(value)
	case "pattern":
		if value == "-" {
			value = ""
		}
		if err := c.responder.SetPattern(value); err != nil {
			c.reply(nick, "Pattern not changed: %v", err)
			return
		}
	case "cooldown":
		d, err := time.ParseDuration(value)
		if err == nil {
			err = c.responder.SetCooldown(d)
		}
		if err != nil {
			c.reply(nick, "Cooldown not changed: %v", err)
			return
		}
	case "reply_in_channel":
		v, err := parseBool(value)
		if err != nil {
			c.reply(nick, "reply_in_channel must be on or off")
			return
		}
		c.responder.SetReplyInChannel(v)
	default:
		c.reply(nick, "Unknown setting %q", key)
		return
	}

	c.saveSettings(nick, hostmask, fmt.Sprintf("set %s to %q", key, value))
	c.reply(nick, "%s has been set to %q", key, value)
}

func (c *Client) cmdPhrase(nick, hostmask, args string) {
	action, phrase, _ := strings.Cut(args, " ")
	phrase = strings.TrimSpace(phrase)

	switch strings.ToLower(action) {
	case "list":
		phrases := c.responder.Status().Phrases
		if len(phrases) == 0 {
			c.reply(nick, "No phrases configured")
			return
		}
		for _, p := range phrases {
			c.reply(nick, "    %s", p)
		}
		return
	case "add":
		if phrase != "" {
			c.addPhrase(nick, hostmask, phrase)
			return
		}
	case "del":
		if phrase != "" {
			c.removePhrase(nick, hostmask, phrase)
			return
		}
	}
	c.reply(nick, "Usage: %sphrase <add|del|list> [phrase]", c.cfg.CommandPrefix)
}

func (c *Client) addPhrase(nick, hostmask, phrase string) {
	added, err := c.responder.AddPhrase(phrase)
	switch {
	case err != nil:
		c.reply(nick, "Phrase not added: %v", err)
	case !added:
		c.reply(nick, "%q is already a phrase", phrase)
	default:
		c.saveSettings(nick, hostmask, fmt.Sprintf("added phrase %q", phrase))
		c.reply(nick, "Added %q", phrase)
	}
}

func (c *Client) removePhrase(nick, hostmask, phrase string) {
	removed, err := c.responder.RemovePhrase(phrase)
	switch {
	case err != nil:
		c.reply(nick, "Phrase not removed: %v", err)
	case !removed:
		c.reply(nick, "%q is not a phrase", phrase)
	default:
		c.saveSettings(nick, hostmask, fmt.Sprintf("removed phrase %q", phrase))
		c.reply(nick, "Removed %q", phrase)
	}
}

func (c *Client) cmdReset(nick, hostmask, args string) {
	if err := c.responder.Replace(c.cfg.Pong); err != nil {
		c.reply(nick, "Reset failed: %v", err)
		return
	}
	if err := storage.RemoveSettings(c.cfg.DataDir); err != nil {
		c.logger.Error("error removing saved settings", "error", err)
	}
	c.logger.Info("settings reset", "by", nick)
	c.logCommand(hostmask, "reset settings")
	c.reply(nick, "Settings restored from the config file")
}

func (c *Client) cmdHistory(nick, hostmask, args string) {
	c.logCommand(hostmask, "history "+args)

	count := 10
	if args != "" {
		if n, err := strconv.Atoi(strings.Fields(args)[0]); err == nil && n > 0 {
			count = n
		}
	}

	c.mu.RLock()
	replies := c.replies
	c.mu.RUnlock()

	if len(replies) == 0 {
		c.reply(nick, "No canned replies sent yet")
		return
	}
	c.reply(nick, "The last \x02%d\x02 canned replies:", min(count, len(replies)))
	for i := 0; i < count && i < len(replies); i++ {
		c.reply(nick, "%s", replies[i])
	}
}

func (c *Client) cmdNick(nick, hostmask, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		c.reply(nick, "Usage: %snick <newnick>", c.cfg.CommandPrefix)
		return
	}
	newNick := fields[0]

	c.out.SetNick(newNick)
	time.AfterFunc(time.Second, func() {
		c.reply(nick, "Changed nick to %s", newNick)
	})
	c.logCommand(hostmask, fmt.Sprintf("nick change command to %s", newNick))
}

func (c *Client) cmdRestart(nick, hostmask, args string) {
	c.logCommand(hostmask, "restart command")
	c.reply(nick, "Restarting")

	if c.OnRestart != nil {
		c.OnRestart()
	}
}

func (c *Client) cmdShutdown(nick, hostmask, args string) {
	c.logCommand(hostmask, "shutdown command")
	c.reply(nick, "Shutting down")

	if c.OnShutdown != nil {
		c.OnShutdown()
	}
}

func (c *Client) saveSettings(nick, hostmask, what string) {
	c.logger.Info("settings changed", "by", nick, "change", what)
	c.logCommand(hostmask, what)
	if err := storage.SaveSettings(c.cfg.DataDir, c.responder.Settings()); err != nil {
		c.logger.Error("error saving settings", "error", err)
		c.reply(nick, "Error saving settings: %v", err)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

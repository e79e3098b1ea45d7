// Package discord owns the discordgo.Session lifecycle, routes slash command
// interactions to registered handlers, and checks admin permissions.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the bot token without the "Bot " prefix.
	Token string

	// GuildID registers commands on one guild. Empty registers globally.
	GuildID string

	// AdminRoleID grants access to admin commands.
	AdminRoleID string
}

// Bot owns the Discord gateway connection and routes interactions
// to registered command handlers.
type Bot struct {
	mu        sync.RWMutex
	session   *discordgo.Session
	router    *CommandRouter
	perms     *PermissionChecker
	guildID   string
	commands  []*discordgo.ApplicationCommand
	closeOnce sync.Once
}

// New creates a Bot, connects to Discord, and registers the interaction handler.
func New(_ context.Context, cfg Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		router:  NewCommandRouter(),
		perms:   NewPermissionChecker(cfg.AdminRoleID),
		guildID: cfg.GuildID,
	}
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.Handle(s, i)
	})

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}
	return b, nil
}

// GuildID returns the target guild ID.
func (b *Bot) GuildID() string {
	return b.guildID
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// Permissions returns the permission checker.
func (b *Bot) Permissions() *PermissionChecker {
	return b.perms
}

// Run registers slash commands with the Discord API and blocks until
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.RLock()
	appID := b.session.State.User.ID
	b.mu.RUnlock()

	cmds := b.router.ApplicationCommands()
	if len(cmds) > 0 {
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, cmds)
		if err != nil {
			return fmt.Errorf("discord: register commands: %w", err)
		}
		b.mu.Lock()
		b.commands = registered
		b.mu.Unlock()
		slog.Info("discord commands registered", "count", len(registered), "guild", b.guildID)
	}

	<-ctx.Done()
	return nil
}

// Close unregisters guild commands and disconnects. Global commands are left
// in place since Discord takes up to an hour to propagate them.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.guildID != "" && len(b.commands) > 0 {
			appID := b.session.State.User.ID
			for _, cmd := range b.commands {
				if err := b.session.ApplicationCommandDelete(appID, b.guildID, cmd.ID); err != nil {
					slog.Warn("discord: failed to delete command", "name", cmd.Name, "err", err)
				}
			}
		}

		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("discord: close session: %w", err)
		}
		slog.Info("discord bot closed")
	})
	return closeErr
}

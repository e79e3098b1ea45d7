package discord

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc is the signature for slash command handlers.
type HandlerFunc func(r Responder, i *discordgo.InteractionCreate)

// AutocompleteFunc is the signature for autocomplete handlers.
type AutocompleteFunc func(r Responder, i *discordgo.InteractionCreate)

type commandEntry struct {
	command *discordgo.ApplicationCommand
	handler HandlerFunc
}

// CommandRouter dispatches Discord interactions to registered handlers.
type CommandRouter struct {
	mu           sync.RWMutex
	commands     map[string]commandEntry     // "command" or "command/subcommand"
	autocomplete map[string]AutocompleteFunc // same keys as commands
}

// NewCommandRouter creates an empty router.
func NewCommandRouter() *CommandRouter {
	return &CommandRouter{
		commands:     make(map[string]commandEntry),
		autocomplete: make(map[string]AutocompleteFunc),
	}
}

// RegisterCommand registers a handler for a slash command. The key format is
// "command" or "command/subcommand" (e.g., "padguide/refresh"). Only
// top-level definitions are sent to Discord; subcommands are nested inside.
func (r *CommandRouter) RegisterCommand(key string, cmd *discordgo.ApplicationCommand, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[key] = commandEntry{command: cmd, handler: handler}
}

// RegisterHandler registers a handler for a key whose parent command is
// already registered.
func (r *CommandRouter) RegisterHandler(key string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[key] = commandEntry{handler: handler}
}

// RegisterAutocomplete registers an autocomplete handler.
func (r *CommandRouter) RegisterAutocomplete(key string, handler AutocompleteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autocomplete[key] = handler
}

// ApplicationCommands returns the deduplicated top-level command
// definitions, sorted by name.
func (r *CommandRouter) ApplicationCommands() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var cmds []*discordgo.ApplicationCommand
	for _, entry := range r.commands {
		if entry.command != nil && !seen[entry.command.Name] {
			seen[entry.command.Name] = true
			cmds = append(cmds, entry.command)
		}
	}
	slices.SortFunc(cmds, func(a, b *discordgo.ApplicationCommand) int {
		return strings.Compare(a.Name, b.Name)
	})
	return cmds
}

// Handle dispatches an interaction to the appropriate handler.
func (r *CommandRouter) Handle(resp Responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		r.handleApplicationCommand(resp, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		r.handleAutocomplete(resp, i)
	default:
		slog.Warn("discord: unhandled interaction type", "type", i.Type)
	}
}

// interactionKey builds a router key from an ApplicationCommand interaction.
func interactionKey(data discordgo.ApplicationCommandInteractionData) string {
	key := data.Name
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		key += "/" + data.Options[0].Name
	}
	return key
}

func (r *CommandRouter) handleApplicationCommand(resp Responder, i *discordgo.InteractionCreate) {
	key := interactionKey(i.ApplicationCommandData())

	r.mu.RLock()
	entry, ok := r.commands[key]
	r.mu.RUnlock()

	if !ok {
		slog.Warn("discord: unknown command", "key", key)
		RespondEphemeral(resp, i, "Unknown command.")
		return
	}
	entry.handler(resp, i)
}

func (r *CommandRouter) handleAutocomplete(resp Responder, i *discordgo.InteractionCreate) {
	key := interactionKey(i.ApplicationCommandData())

	r.mu.RLock()
	handler, ok := r.autocomplete[key]
	r.mu.RUnlock()

	if !ok {
		slog.Debug("discord: no autocomplete handler", "key", key)
		RespondChoices(resp, i, nil)
		return
	}
	handler(resp, i)
}

// RespondChoices answers an autocomplete interaction.
func RespondChoices(r Responder, i *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		slog.Warn("discord: failed to send autocomplete choices", "err", err)
	}
}

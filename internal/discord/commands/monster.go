// Package commands implements the slash commands of the lookup bot.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/padinfo/internal/discord"
	"github.com/MrWong99/padinfo/internal/generation"
	"github.com/MrWong99/padinfo/internal/lookup"
	"github.com/MrWong99/padinfo/internal/nickname"
	"github.com/MrWong99/padinfo/internal/pgdata"
)

const lookupTimeout = 5 * time.Second

// Resolver answers monster queries. *lookup.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, query string) (lookup.Result, *generation.Generation, error)
}

// Snapshots exposes the live generation. *generation.Holder implements it.
type Snapshots interface {
	Current() *generation.Generation
}

// MonsterCommands handles /id, /idz, /pic, /debugid and /helpid.
type MonsterCommands struct {
	perms     *discord.PermissionChecker
	resolver  Resolver
	snapshots Snapshots
}

// NewMonsterCommands creates a MonsterCommands handler.
func NewMonsterCommands(perms *discord.PermissionChecker, resolver Resolver, snapshots Snapshots) *MonsterCommands {
	return &MonsterCommands{perms: perms, resolver: resolver, snapshots: snapshots}
}

// Register registers every lookup command with the router.
func (mc *MonsterCommands) Register(router *discord.CommandRouter) {
	for _, def := range mc.Definitions() {
		var h discord.HandlerFunc
		switch def.Name {
		case "id":
			h = mc.handleID
		case "idz":
			h = mc.handleIDZ
		case "pic":
			h = mc.handlePic
		case "debugid":
			h = mc.handleDebugID
		case "helpid":
			h = mc.handleHelp
		}
		router.RegisterCommand(def.Name, def, h)
		if def.Name != "helpid" {
			router.RegisterAutocomplete(def.Name, mc.handleAutocomplete)
		}
	}
}

// Definitions returns the ApplicationCommands for Discord registration.
func (mc *MonsterCommands) Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "id",
			Description: "Look up a monster",
			Options:     []*discordgo.ApplicationCommandOption{queryOption("Monster id, name or nickname", true)},
		},
		{
			Name:        "idz",
			Description: "Look up a monster as plain text",
			Options:     []*discordgo.ApplicationCommandOption{queryOption("Monster id, name or nickname", true)},
		},
		{
			Name:        "pic",
			Description: "Show a monster's picture",
			Options:     []*discordgo.ApplicationCommandOption{queryOption("Monster id, name or nickname", true)},
		},
		{
			Name:        "debugid",
			Description: "Look up a monster and explain the match",
			Options:     []*discordgo.ApplicationCommandOption{queryOption("Monster id, name or nickname", true)},
		},
		{
			Name:        "helpid",
			Description: "Explain monster lookup queries",
		},
	}
}

// find resolves the query option and replies itself when there is nothing
// to render. ok is false in that case.
func (mc *MonsterCommands) find(r discord.Responder, i *discordgo.InteractionCreate) (res lookup.Result, g *generation.Generation, m *pgdata.Monster, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	res, g, err := mc.resolver.Resolve(ctx, stringOption(i, "query"))
	if errors.Is(err, generation.ErrNotReady) {
		discord.RespondEphemeral(r, i, "The monster index is still loading, try again in a minute.")
		return res, nil, nil, false
	}
	if err != nil {
		discord.RespondError(r, i, err)
		return res, nil, nil, false
	}
	if !res.Found() {
		discord.Respond(r, i, FailureMessage(res.Reason))
		return res, nil, nil, false
	}

	m = g.DB.Monster(res.Monster.ID)
	if m == nil {
		slog.Error("indexed monster missing from its generation", "id", res.Monster.ID, "generation", g.Seq)
		discord.RespondError(r, i, fmt.Errorf("monster %d is missing from the data", res.Monster.ID))
		return res, nil, nil, false
	}
	return res, g, m, true
}

// handleID handles /id <query>. An embed that Discord rejects is retried
// as the plain-text block.
func (mc *MonsterCommands) handleID(r discord.Responder, i *discordgo.InteractionCreate) {
	_, g, m, ok := mc.find(r, i)
	if !ok {
		return
	}
	if err := discord.RespondEmbed(r, i, Embed(g.DB, m)); err != nil {
		slog.Warn("embed rejected, sending text", "monster", m.ID, "err", err)
		info, link := InfoText(g.DB, m)
		discord.Respond(r, i, Box(info)+"\n<"+link+">")
	}
}

// handleIDZ handles /idz <query>.
func (mc *MonsterCommands) handleIDZ(r discord.Responder, i *discordgo.InteractionCreate) {
	_, g, m, ok := mc.find(r, i)
	if !ok {
		return
	}
	info, link := InfoText(g.DB, m)
	discord.Respond(r, i, Box(info)+"\n<"+link+">")
}

// handlePic handles /pic <query>.
func (mc *MonsterCommands) handlePic(r discord.Responder, i *discordgo.InteractionCreate) {
	_, _, m, ok := mc.find(r, i)
	if !ok {
		return
	}
	header, link := PicText(m)
	discord.Respond(r, i, "`"+header+"`\n"+link)
}

// handleDebugID handles /debugid <query>.
func (mc *MonsterCommands) handleDebugID(r discord.Responder, i *discordgo.InteractionCreate) {
	if !mc.perms.IsAdmin(i) {
		discord.RespondEphemeral(r, i, "You need the admin role to debug lookups.")
		return
	}
	res, g, m, ok := mc.find(r, i)
	if !ok {
		return
	}
	info, _ := InfoText(g.DB, m)
	discord.Respond(r, i, Box(info)+"\n"+Box(DebugText(res.Method, res.Monster)))
}

// handleHelp handles /helpid.
func (mc *MonsterCommands) handleHelp(r discord.Responder, i *discordgo.InteractionCreate) {
	discord.RespondEphemeral(r, i, Box(helpText))
}

// handleAutocomplete suggests nicknames starting with the typed text.
func (mc *MonsterCommands) handleAutocomplete(r discord.Responder, i *discordgo.InteractionCreate) {
	g := mc.snapshots.Current()
	partial := lookup.Normalize(focusedValue(i))
	if g == nil || partial == "" {
		discord.RespondChoices(r, i, nil)
		return
	}
	discord.RespondChoices(r, i, suggest(g, partial))
}

// suggest returns up to maxChoices nicknames starting with prefix, sorted.
func suggest(g *generation.Generation, prefix string) []*discordgo.ApplicationCommandOptionChoice {
	var nicks []string
	owners := map[string]string{}
	g.Index.VisitPrefix(prefix, func(nick string, nm *nickname.NamedMonster) {
		nicks = append(nicks, nick)
		owners[nick] = fmt.Sprintf("No. %d %s", nm.NAID, nm.NameNA)
	})
	slices.Sort(nicks)
	if len(nicks) > maxChoices {
		nicks = nicks[:maxChoices]
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(nicks))
	for k, nick := range nicks {
		choices[k] = &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(nick+" ("+owners[nick]+")", maxChoiceLen),
			Value: nick,
		}
	}
	return choices
}

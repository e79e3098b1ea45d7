package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/padinfo/internal/discord"
	"github.com/MrWong99/padinfo/internal/feedback"
	"github.com/MrWong99/padinfo/internal/overrides"
)

const storeTimeout = 30 * time.Second

// Refresher schedules index rebuilds. *generation.Refresher implements it.
type Refresher interface {
	Trigger()
	Status() (lastOK time.Time, lastErr error)
}

// OverrideStore persists manual overrides. *overrides.PostgresSource
// implements it.
type OverrideStore interface {
	AddNickname(ctx context.Context, nickname string, naID int) error
	RemoveNickname(ctx context.Context, nickname string) (bool, error)
	Import(ctx context.Context, kind string, r io.Reader) (imported, dropped int, err error)
}

// MissLog reports the most frequent unmatched queries. *feedback.FileStore
// implements it.
type MissLog interface {
	Top(n int) ([]feedback.Miss, error)
}

const defaultMisses = 10

// PadguideCommands handles the admin-only /padguide group.
type PadguideCommands struct {
	perms     *discord.PermissionChecker
	resolver  Resolver
	snapshots Snapshots
	refresher Refresher
	store     OverrideStore // nil without an override database
	misses    MissLog       // nil without a miss log
	client    *http.Client
}

// NewPadguideCommands creates a PadguideCommands handler. store may be nil.
func NewPadguideCommands(perms *discord.PermissionChecker, resolver Resolver, snapshots Snapshots, refresher Refresher, store OverrideStore) *PadguideCommands {
	return &PadguideCommands{
		perms:     perms,
		resolver:  resolver,
		snapshots: snapshots,
		refresher: refresher,
		store:     store,
		client:    &http.Client{Timeout: storeTimeout},
	}
}

// SetMissLog enables /padguide misses.
func (pc *PadguideCommands) SetMissLog(m MissLog) { pc.misses = m }

// Register registers all /padguide subcommands with the router.
func (pc *PadguideCommands) Register(router *discord.CommandRouter) {
	def := pc.Definition()
	router.RegisterCommand("padguide", def, func(r discord.Responder, i *discordgo.InteractionCreate) {
		discord.RespondEphemeral(r, i, "Please use a subcommand: `/padguide query`, `/padguide status`, `/padguide refresh`, `/padguide nickname`, `/padguide unnickname`, `/padguide import`, `/padguide misses`.")
	})
	router.RegisterHandler("padguide/query", pc.admin(pc.handleQuery))
	router.RegisterHandler("padguide/status", pc.admin(pc.handleStatus))
	router.RegisterHandler("padguide/refresh", pc.admin(pc.handleRefresh))
	router.RegisterHandler("padguide/nickname", pc.admin(pc.handleNickname))
	router.RegisterHandler("padguide/unnickname", pc.admin(pc.handleUnnickname))
	router.RegisterHandler("padguide/import", pc.admin(pc.handleImport))
	router.RegisterHandler("padguide/misses", pc.admin(pc.handleMisses))
}

// Definition returns the /padguide ApplicationCommand for Discord registration.
func (pc *PadguideCommands) Definition() *discordgo.ApplicationCommand {
	minID, maxMisses := 1.0, float64(maxChoices)
	return &discordgo.ApplicationCommand{
		Name:        "padguide",
		Description: "Inspect and maintain the monster index",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "query",
				Description: "Dump everything derived for a monster",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options:     []*discordgo.ApplicationCommandOption{queryOption("Monster id, name or nickname", false)},
			},
			{
				Name:        "status",
				Description: "Show the live index generation",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "refresh",
				Description: "Rebuild the index now",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "nickname",
				Description: "Make a nickname resolve to a monster",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "name",
						Description: "Nickname",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
					{
						Name:        "id",
						Description: "NA monster id",
						Type:        discordgo.ApplicationCommandOptionInteger,
						Required:    true,
						MinValue:    &minID,
					},
				},
			},
			{
				Name:        "unnickname",
				Description: "Remove a nickname override",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "name",
						Description: "Nickname",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "import",
				Description: "Import an override CSV",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "table",
						Description: "Which table the file holds",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "nicknames (nickname,id)", Value: overrides.KindNickname},
							{Name: "basenames (id,basename)", Value: overrides.KindBasename},
						},
					},
					{
						Name:        "file",
						Description: "CSV file",
						Type:        discordgo.ApplicationCommandOptionAttachment,
						Required:    true,
					},
				},
			},
			{
				Name:        "misses",
				Description: "List the queries that most often found nothing",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "count",
						Description: "How many to list",
						Type:        discordgo.ApplicationCommandOptionInteger,
						MinValue:    &minID,
						MaxValue:    maxMisses,
					},
				},
			},
		},
	}
}

func (pc *PadguideCommands) admin(h discord.HandlerFunc) discord.HandlerFunc {
	return func(r discord.Responder, i *discordgo.InteractionCreate) {
		if !pc.perms.IsAdmin(i) {
			discord.RespondEphemeral(r, i, "You need the admin role to use /padguide.")
			return
		}
		h(r, i)
	}
}

// handleQuery handles /padguide query <query>.
func (pc *PadguideCommands) handleQuery(r discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	res, _, err := pc.resolver.Resolve(ctx, stringOption(i, "query"))
	if err != nil {
		discord.RespondError(r, i, err)
		return
	}
	if !res.Found() {
		discord.RespondEphemeral(r, i, FailureMessage(res.Reason))
		return
	}
	dump, err := DumpText(res.Monster)
	if err != nil {
		discord.RespondError(r, i, err)
		return
	}
	discord.RespondEphemeral(r, i, Box(fmt.Sprintf("# %s\n%s", res.Method, dump)))
}

// handleStatus handles /padguide status.
func (pc *PadguideCommands) handleStatus(r discord.Responder, i *discordgo.InteractionCreate) {
	var b strings.Builder
	if g := pc.snapshots.Current(); g != nil {
		fmt.Fprintf(&b, "Generation %d built %s ago in %s\n", g.Seq, time.Since(g.BuiltAt).Round(time.Second), g.Took.Round(time.Millisecond))
		fmt.Fprintf(&b, "Monsters: %d  Nicknames: %d  Overrides: %d\n", g.Monsters(), g.Nicknames(), g.Overrides.Len())
	} else {
		b.WriteString("No index published yet\n")
	}
	if _, lastErr := pc.refresher.Status(); lastErr != nil {
		fmt.Fprintf(&b, "Last rebuild failed: %v\n", lastErr)
	}
	discord.RespondEphemeral(r, i, Box(strings.TrimSpace(b.String())))
}

// handleRefresh handles /padguide refresh.
func (pc *PadguideCommands) handleRefresh(r discord.Responder, i *discordgo.InteractionCreate) {
	pc.refresher.Trigger()
	discord.RespondEphemeral(r, i, "Index rebuild scheduled.")
}

// handleNickname handles /padguide nickname <name> <id>.
func (pc *PadguideCommands) handleNickname(r discord.Responder, i *discordgo.InteractionCreate) {
	if pc.store == nil {
		discord.RespondEphemeral(r, i, "No override database is configured; edit the override CSV instead.")
		return
	}
	name, id := stringOption(i, "name"), intOption(i, "id")

	discord.DeferReply(r, i)
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := pc.store.AddNickname(ctx, name, id); err != nil {
		discord.FollowUp(r, i, fmt.Sprintf("Failed to add nickname: %v", err))
		return
	}
	pc.refresher.Trigger()
	discord.FollowUp(r, i, fmt.Sprintf("Nickname **%s** now points at No. %d. The index is rebuilding.", strings.ToLower(strings.TrimSpace(name)), id))
}

// handleUnnickname handles /padguide unnickname <name>.
func (pc *PadguideCommands) handleUnnickname(r discord.Responder, i *discordgo.InteractionCreate) {
	if pc.store == nil {
		discord.RespondEphemeral(r, i, "No override database is configured; edit the override CSV instead.")
		return
	}
	name := stringOption(i, "name")

	discord.DeferReply(r, i)
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	removed, err := pc.store.RemoveNickname(ctx, name)
	if err != nil {
		discord.FollowUp(r, i, fmt.Sprintf("Failed to remove nickname: %v", err))
		return
	}
	if !removed {
		discord.FollowUp(r, i, fmt.Sprintf("No override named %q.", name))
		return
	}
	pc.refresher.Trigger()
	discord.FollowUp(r, i, fmt.Sprintf("Removed override %q. The index is rebuilding.", name))
}

// handleImport handles /padguide import <table> <file>.
func (pc *PadguideCommands) handleImport(r discord.Responder, i *discordgo.InteractionCreate) {
	if pc.store == nil {
		discord.RespondEphemeral(r, i, "No override database is configured; edit the override CSV instead.")
		return
	}
	attachment := FirstAttachment(i)
	if attachment == nil {
		discord.RespondEphemeral(r, i, "Please attach a CSV file.")
		return
	}
	if !IsCSV(attachment.Filename) {
		discord.RespondEphemeral(r, i, "Override files must be CSV (.csv).")
		return
	}
	if attachment.Size > maxImportSize {
		discord.RespondEphemeral(r, i, fmt.Sprintf("File too large (%d bytes). Maximum is 1 MB.", attachment.Size))
		return
	}
	table := stringOption(i, "table")

	discord.DeferReply(r, i)
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	dl, err := DownloadAttachment(ctx, pc.client, attachment)
	if err != nil {
		discord.FollowUp(r, i, fmt.Sprintf("Failed to download attachment: %v", err))
		return
	}
	defer dl.Body.Close()

	n, dropped, err := pc.store.Import(ctx, table, dl.Body)
	if n > 0 {
		pc.refresher.Trigger()
	}
	if err != nil {
		discord.FollowUp(r, i, fmt.Sprintf("Import error: %v (imported %d rows before error)", err, n))
		return
	}
	discord.FollowUp(r, i, fmt.Sprintf("Imported %d %s overrides from %s, skipped %d malformed rows.", n, table, dl.Filename, dropped))
}

// handleMisses handles /padguide misses [count].
func (pc *PadguideCommands) handleMisses(r discord.Responder, i *discordgo.InteractionCreate) {
	if pc.misses == nil {
		discord.RespondEphemeral(r, i, "No miss log is configured; set data.miss_log to record unmatched queries.")
		return
	}
	n := intOption(i, "count")
	if n <= 0 {
		n = defaultMisses
	}
	top, err := pc.misses.Top(n)
	if err != nil {
		discord.RespondError(r, i, err)
		return
	}
	if len(top) == 0 {
		discord.RespondEphemeral(r, i, "No unmatched queries recorded.")
		return
	}
	var b strings.Builder
	for _, m := range top {
		fmt.Fprintf(&b, "%4d  %s  (last %s)\n", m.Count, m.Query, m.LastSeen.Format(time.DateOnly))
	}
	discord.RespondEphemeral(r, i, Box(strings.TrimSuffix(b.String(), "\n")))
}

package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/padinfo/internal/nickname"
	"github.com/MrWong99/padinfo/internal/pgdata"
)

const (
	monsterPageURL  = "http://www.puzzledragonx.com/en/monster.asp?n=%d"
	monsterThumbURL = "http://www.puzzledragonx.com/en/img/book/%d.png"
	monsterPicURL   = "http://www.puzzledragonx.com/en/img/monster/MONS_%d.jpg"

	// maxMessageLen is Discord's limit for message content.
	maxMessageLen = 2000

	embedColor = 0x5865F2
	missing    = "None/Missing"
)

// MonsterLink returns the puzzledragonx page of a monster.
func MonsterLink(m *pgdata.Monster) string {
	return fmt.Sprintf(monsterPageURL, m.NAID)
}

// Header is the one-line title of a monster.
func Header(m *pgdata.Monster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No. %d %s", m.NAID, m.NameNA)
	if m.RomaSubname != "" {
		fmt.Fprintf(&b, " [%s]", m.RomaSubname)
	}
	if !m.OnNA {
		b.WriteString(" (JP only)")
	}
	return b.String()
}

// AwakeningsRow lists awakenings as "{short}x{count}" in first-seen order.
func AwakeningsRow(names []string) string {
	var order []string
	counts := map[string]int{}
	for _, n := range names {
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	if len(order) == 0 {
		return "No Awakenings"
	}
	parts := make([]string, len(order))
	for i, n := range order {
		parts[i] = fmt.Sprintf("%sx%d", AwakeningShortName(n), counts[n])
	}
	return strings.Join(parts, " ")
}

func awakeningNames(db *pgdata.DB, m *pgdata.Monster) []string {
	skills := db.AwakeningSkills(m)
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names
}

func attrs(m *pgdata.Monster) string {
	var out []string
	for _, a := range []pgdata.Attr{m.Attr1, m.Attr2} {
		if a != pgdata.AttrNone {
			out = append(out, a.String())
		}
	}
	if len(out) == 0 {
		return "None"
	}
	return strings.Join(out, "/")
}

func types(m *pgdata.Monster) string {
	if t := m.Types(); len(t) > 0 {
		return strings.Join(t, "/")
	}
	return "None"
}

// InfoText renders the plain-text info block of m and its page link.
func InfoText(db *pgdata.DB, m *pgdata.Monster) (info, link string) {
	rows := []string{
		Header(m),
		fmt.Sprintf("%s  |  %s  |  Rarity:%d  |  Cost:%d", attrs(m), types(m), m.Rarity, m.Cost),
		fmt.Sprintf("Lv. %d  HP %d  ATK %d  RCV %d  Weighted %d", m.MaxLevel, m.HP, m.ATK, m.RCV, m.WeightedStats),
		AwakeningsRow(awakeningNames(db, m)),
	}

	if ls := db.SkillAt(m.LeaderSkill); ls != nil && ls.Desc != "" {
		rows = append(rows, "LS: "+ls.Desc)
	} else {
		rows = append(rows, "LS: "+missing)
	}
	if as := db.SkillAt(m.ActiveSkill); as != nil && as.Desc != "" {
		rows = append(rows, fmt.Sprintf("AS: (%d->%d): %s", as.TurnMax, as.TurnMin, as.Desc))
	} else {
		rows = append(rows, "AS: "+missing)
	}
	return strings.Join(rows, "\n"), MonsterLink(m)
}

// PicText returns the header and full-size image link of m.
func PicText(m *pgdata.Monster) (header, link string) {
	return fmt.Sprintf("No. %d %s", m.NAID, m.NameNA), fmt.Sprintf(monsterPicURL, m.NAID)
}

// Embed renders m as a rich embed.
func Embed(db *pgdata.DB, m *pgdata.Monster) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       Header(m),
		URL:         MonsterLink(m),
		Color:       embedColor,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: fmt.Sprintf(monsterThumbURL, m.NAID)},
		Description: AwakeningsRow(awakeningNames(db, m)),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   types(m),
				Value:  fmt.Sprintf("**Rarity** %d\n**Cost** %d", m.Rarity, m.Cost),
				Inline: true,
			},
			{
				Name:   "Weighted " + strconv.Itoa(m.WeightedStats),
				Value:  fmt.Sprintf("**HP** %d\n**ATK** %d\n**RCV** %d", m.HP, m.ATK, m.RCV),
				Inline: true,
			},
		},
	}

	active := &discordgo.MessageEmbedField{Name: "Active Skill", Value: missing}
	if as := db.SkillAt(m.ActiveSkill); as != nil && as.Desc != "" {
		active.Name = fmt.Sprintf("Active Skill (%d -> %d)", as.TurnMax, as.TurnMin)
		active.Value = as.Desc
	}
	leader := &discordgo.MessageEmbedField{Name: "Leader Skill", Value: missing}
	if ls := db.SkillAt(m.LeaderSkill); ls != nil && ls.Desc != "" {
		leader.Value = ls.Desc
	}
	embed.Fields = append(embed.Fields, active, leader)
	return embed
}

// FailureMessage explains a failed lookup.
func FailureMessage(reason string) string {
	return Box("Lookup failed: " + reason + ".\n" +
		"Try one of <id>, <name>, [argbld]/[rgbld] <name>. Unexpected results? Use /helpid for more info.")
}

// DebugText describes how a monster's nicknames were derived.
func DebugText(method string, nm *nickname.NamedMonster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lookup type: %s\n", method)
	fmt.Fprintf(&b, "Monster info: basename=%s | group basename=%s | group=(%s)",
		nm.MonsterBasename, nm.GroupComputedBasename, strings.Join(nm.GroupBasenames, ","))
	if len(nm.Prefixes) > 0 {
		fmt.Fprintf(&b, " | prefixes=(%s)", strings.Join(nm.Prefixes, ","))
	}
	if len(nm.ExtraNicknames) > 0 {
		fmt.Fprintf(&b, " | overrides=(%s)", strings.Join(nm.ExtraNicknames, ","))
	}
	if nm.RomaSubname != "" {
		fmt.Fprintf(&b, " | roma: %s", nm.RomaSubname)
	}
	if nm.LowPriority {
		b.WriteString(" | low priority")
	}
	return b.String()
}

// DumpText renders every derived field of nm as YAML.
func DumpText(nm *nickname.NamedMonster) (string, error) {
	out, err := yaml.Marshal(nm)
	if err != nil {
		return "", fmt.Errorf("commands: dump monster %d: %w", nm.ID, err)
	}
	return string(out), nil
}

const helpText = `/helpid : shows this message
/id <query> : look up a monster and print a link to puzzledragonx
/idz <query> : the same as plain text
/pic <query> : look up a monster and display its image inline

Options for <query>
	<id> : find a monster by ID
		/id 1234 (picks sun quan)
	<name> : take the best guess for a monster, picks the most recent monster
		/id kali (picks uvo d kali)
	<prefix> <name> : limit by element or awoken, e.g.
		/id ares  (selects the most recent, awoken ares)
		/id aares (explicitly selects awoken ares)
		/id a ares (spaces work too)
		/id rd ares (select a specific evo for ares, the red/dark one)
		/id r/d ares (slashes, spaces work too)`

// Box wraps s in a code block, truncating it to fit one message.
func Box(s string) string {
	const fence = "```"
	limit := maxMessageLen - 2*len(fence) - 2
	if len(s) > limit {
		s = truncate(s, limit-len("...")) + "..."
	}
	return fence + "\n" + s + "\n" + fence
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

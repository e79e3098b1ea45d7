package commands

import "github.com/bwmarrin/discordgo"

// Discord limits on autocomplete choices.
const (
	maxChoices   = 25
	maxChoiceLen = 100
)

// options returns the options of the invoked subcommand, or the top-level
// options for a command without subcommands.
func options(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return data.Options[0].Options
	}
	return data.Options
}

func option(i *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options(i) {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	if opt := option(i, name); opt != nil && opt.Type == discordgo.ApplicationCommandOptionString {
		return opt.StringValue()
	}
	return ""
}

func intOption(i *discordgo.InteractionCreate, name string) int {
	if opt := option(i, name); opt != nil && opt.Type == discordgo.ApplicationCommandOptionInteger {
		return int(opt.IntValue())
	}
	return 0
}

// focusedValue returns the partial text of the option being autocompleted.
func focusedValue(i *discordgo.InteractionCreate) string {
	for _, opt := range options(i) {
		if opt.Focused && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func queryOption(description string, autocomplete bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:         "query",
		Description:  description,
		Type:         discordgo.ApplicationCommandOptionString,
		Required:     true,
		Autocomplete: autocomplete,
	}
}

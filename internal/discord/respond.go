package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Responder is the part of *discordgo.Session that handlers reply through.
type Responder interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Respond sends a public text response to an interaction.
func Respond(r Responder, i *discordgo.InteractionCreate, content string) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		slog.Warn("discord: failed to send response", "err", err)
	}
}

// RespondEphemeral sends an ephemeral text response to an interaction.
func RespondEphemeral(r Responder, i *discordgo.InteractionCreate, content string) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord: failed to send ephemeral response", "err", err)
	}
}

// RespondEmbed sends a public embed response. The error is returned so the
// caller can fall back to plain text.
func RespondEmbed(r Responder, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// RespondError sends a formatted error response (ephemeral).
func RespondError(r Responder, i *discordgo.InteractionCreate, err error) {
	RespondEphemeral(r, i, fmt.Sprintf("Error: %v", err))
}

// DeferReply acknowledges an interaction whose answer takes longer than
// Discord's three second limit.
func DeferReply(r Responder, i *discordgo.InteractionCreate) {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord: failed to defer reply", "err", err)
	}
}

// FollowUp sends a follow-up message after a deferred response.
func FollowUp(r Responder, i *discordgo.InteractionCreate, content string) {
	_, err := r.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Warn("discord: failed to send follow-up", "err", err)
	}
}

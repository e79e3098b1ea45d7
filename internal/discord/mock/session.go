// Package mock provides a recording [discord.Responder] for handler tests.
package mock

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// InteractionResponder records interaction responses for test assertions.
type InteractionResponder struct {
	mu sync.Mutex

	// Responses records all InteractionRespond calls.
	Responses []*discordgo.InteractionResponse

	// FollowUps records all FollowupMessageCreate calls.
	FollowUps []*discordgo.WebhookParams

	// Err is returned by InteractionRespond and FollowupMessageCreate
	// when non-nil.
	Err error

	// EmbedErr is returned by InteractionRespond for responses carrying
	// embeds, before Err is considered.
	EmbedErr error
}

// InteractionRespond records the response and returns the configured error.
func (m *InteractionResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EmbedErr != nil && resp.Data != nil && len(resp.Data.Embeds) > 0 {
		return m.EmbedErr
	}
	m.Responses = append(m.Responses, resp)
	return m.Err
}

// FollowupMessageCreate records the follow-up and returns a stub message.
func (m *InteractionResponder) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, params *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FollowUps = append(m.FollowUps, params)
	if m.Err != nil {
		return nil, m.Err
	}
	return &discordgo.Message{ID: "mock-followup"}, nil
}

// LastResponse returns the most recently recorded response, or nil.
func (m *InteractionResponder) LastResponse() *discordgo.InteractionResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Responses) == 0 {
		return nil
	}
	return m.Responses[len(m.Responses)-1]
}

// LastFollowUp returns the most recently recorded follow-up, or nil.
func (m *InteractionResponder) LastFollowUp() *discordgo.WebhookParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.FollowUps) == 0 {
		return nil
	}
	return m.FollowUps[len(m.FollowUps)-1]
}

// Reset clears all recorded interactions and errors.
func (m *InteractionResponder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = nil
	m.FollowUps = nil
	m.Err = nil
	m.EmbedErr = nil
}

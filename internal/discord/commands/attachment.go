package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// maxImportSize caps override CSV uploads.
const maxImportSize = 1 << 20

// DownloadedAttachment holds the result of downloading a Discord file attachment.
type DownloadedAttachment struct {
	// Body is the response body, limited to maxImportSize+1 bytes.
	// The caller is responsible for closing it.
	Body io.ReadCloser

	Filename string

	// Size is the attachment size as reported by Discord (before download).
	Size int
}

// IsCSV reports whether filename has a .csv extension.
func IsCSV(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

// FirstAttachment extracts the first attachment from an interaction's resolved
// data. Returns nil if no attachments are present or the interaction is not
// an application command.
func FirstAttachment(i *discordgo.InteractionCreate) *discordgo.MessageAttachment {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	data := i.ApplicationCommandData()
	if data.Resolved == nil || len(data.Resolved.Attachments) == 0 {
		return nil
	}
	for _, a := range data.Resolved.Attachments {
		return a
	}
	return nil
}

// DownloadAttachment downloads a Discord attachment with the given context.
// The caller must close the returned DownloadedAttachment.Body when done.
func DownloadAttachment(ctx context.Context, client *http.Client, attachment *discordgo.MessageAttachment) (*DownloadedAttachment, error) {
	if attachment == nil {
		return nil, fmt.Errorf("commands: download: attachment is nil")
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("commands: download: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("commands: download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("commands: download: unexpected status %s", resp.Status)
	}

	return &DownloadedAttachment{
		Body: struct {
			io.Reader
			io.Closer
		}{io.LimitReader(resp.Body, maxImportSize+1), resp.Body},
		Filename: attachment.Filename,
		Size:     attachment.Size,
	}, nil
}

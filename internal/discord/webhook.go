// Package discord delivers display messages to a Discord webhook.
package discord

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"example.com/activityrelay/internal/relay"
)

// Fixed sender identity and lead-in used for every new post.
const (
	senderName   = "Strava Webhook"
	senderAvatar = "https://d3nn82uaxijpm6.cloudfront.net/mstile-144x144.png?v=dLlWydWlG8"
	leadInText   = "*A new activity was posted to Strava*"
)

// Notifier posts and edits webhook messages. It implements relay.ChatDestination.
type Notifier struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

// NewNotifier parses a Discord webhook URL and builds a Notifier. Webhook
// requests carry their own token, so the session is unauthenticated.
func NewNotifier(webhookURL string) (*Notifier, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, err
	}

	return &Notifier{
		session:   session,
		webhookID: id,
		token:     token,
	}, nil
}

// Post sends the message as a new webhook post and returns the assigned
// message id. The wait flag makes Discord return the created message.
func (n *Notifier) Post(ctx context.Context, msg relay.Message) (string, error) {
	params := &discordgo.WebhookParams{
		Content:   leadInText,
		Username:  senderName,
		AvatarURL: senderAvatar,
		Embeds:    []*discordgo.MessageEmbed{toEmbed(msg)},
	}

	posted, err := n.session.WebhookExecute(n.webhookID, n.token, true, params, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return posted.ID, nil
}

// Edit replaces the embed on a previously posted webhook message.
func (n *Notifier) Edit(ctx context.Context, messageID string, msg relay.Message) error {
	embeds := []*discordgo.MessageEmbed{toEmbed(msg)}
	_, err := n.session.WebhookMessageEdit(n.webhookID, n.token, messageID, &discordgo.WebhookEdit{
		Embeds: &embeds,
	}, discordgo.WithContext(ctx))
	return err
}

func toEmbed(msg relay.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     msg.Title,
		URL:       msg.URL,
		Color:     msg.Color,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    msg.Author.Name,
			URL:     msg.Author.URL,
			IconURL: msg.Author.IconURL,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    msg.Footer.Text,
			IconURL: msg.Footer.IconURL,
		},
	}
	for _, field := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Inline,
		})
	}
	return embed
}

// parseWebhookURL extracts the webhook id and token from a URL of the form
// https://discord.com/api/webhooks/{id}/{token}.
func parseWebhookURL(raw string) (id, token string, err error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		if segment == "webhooks" && i+2 < len(segments) {
			return segments[i+1], segments[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q missing id and token", raw)
}

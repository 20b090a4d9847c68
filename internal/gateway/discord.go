package gateway

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

const discordMessageLimit = 2000

type DiscordGateway struct {
	Session *discordgo.Session
	Handler Responder

	ctx context.Context
}

func NewDiscordGateway(token string, handler Responder) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	dg := &DiscordGateway{Session: s, Handler: handler, ctx: context.Background()}
	s.AddHandler(dg.onMessage)
	return dg, nil
}

func (dg *DiscordGateway) Name() string {
	return "discord"
}

func (dg *DiscordGateway) Start(ctx context.Context) error {
	dg.ctx = ctx
	if err := dg.Session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Printf("Discord connected as %s", dg.Session.State.User.Username)

	<-ctx.Done()
	return dg.Session.Close()
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	log.Printf("[%s] %s", m.Author.Username, m.Content)

	response := dg.Handler.Respond(dg.ctx, m.ChannelID, m.Content)
	if err := dg.Send(m.ChannelID, response); err != nil {
		log.Printf("Error sending to %s: %v", m.ChannelID, err)
	}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	for _, chunk := range splitMessage(text, discordMessageLimit) {
		if _, err := dg.Session.ChannelMessageSend(chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}

// Package discord relays budget change notifications to a Discord channel.
package discord

import (
	"fmt"

	"github.com/NgigiN/budget/internal/events"
	"github.com/NgigiN/budget/internal/report"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MessageSender posts to a channel. *discordgo.Session satisfies it.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Open connects a bot session.
func Open(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return session, nil
}

type Relay struct {
	sender    MessageSender
	channelID string
	currency  string
	log       zerolog.Logger
}

func NewRelay(sender MessageSender, channelID, currency string, log zerolog.Logger) *Relay {
	return &Relay{sender: sender, channelID: channelID, currency: currency, log: log}
}

// Attach subscribes the relay to bus.
func (r *Relay) Attach(bus *events.Bus) (unsubscribe func()) {
	return bus.Subscribe(r.Handle)
}

// Handle posts a message for period and record changes. Display and search
// updates are not relayed.
func (r *Relay) Handle(e events.Event) error {
	msg := r.message(e)
	if msg == "" {
		return nil
	}
	if _, err := r.sender.ChannelMessageSend(r.channelID, msg); err != nil {
		return fmt.Errorf("discord relay %s: %w", e.Kind(), err)
	}
	r.log.Debug().Str("event", e.Kind()).Msg("relayed to discord")
	return nil
}

func (r *Relay) message(e events.Event) string {
	switch e := e.(type) {
	case events.PeriodCreated:
		return fmt.Sprintf("📅 Period **%s** created with income %s", e.Period.Name, r.amount(e.Period.AmountIn))
	case events.PeriodLoaded:
		return fmt.Sprintf("📂 Period **%s** loaded (%d records)", e.Period.Name, e.Records)
	case events.PeriodDeleted:
		return fmt.Sprintf("🗑️ Period **%s** deleted", e.Name)
	case events.PeriodRenamed:
		return fmt.Sprintf("✏️ Period **%s** renamed to **%s**", e.OldName, e.NewName)
	case events.PeriodDuplicated:
		return fmt.Sprintf("📋 Period **%s** copied to **%s** (%d records)", e.SourceName, e.Period.Name, e.Copied)
	case events.RecordAdded:
		return fmt.Sprintf("➕ %s %s in %s", r.amount(e.Record.Amount), e.Record.Label, e.Record.Category)
	case events.RecordUpdated:
		return fmt.Sprintf("🔄 Record %d updated: %s %s", e.Record.ID, r.amount(e.Record.Amount), e.Record.Label)
	case events.RecordRemoved:
		return fmt.Sprintf("➖ Record %d removed", e.ID)
	case events.SalaryUpdated:
		return fmt.Sprintf("💰 Income set to %s", r.amount(e.AmountIn))
	default:
		return ""
	}
}

func (r *Relay) amount(d decimal.Decimal) string {
	return report.Amount(d, r.currency)
}

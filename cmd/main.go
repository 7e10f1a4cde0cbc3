package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/NgigiN/budget/internal/config"
	"github.com/NgigiN/budget/internal/discord"
	"github.com/NgigiN/budget/internal/logger"
	"github.com/bwmarrin/discordgo"
	"github.com/google/subcommands"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	a, err := newApp(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open the budget database: %v\n", err)
		os.Exit(1)
	}

	var session *discordgo.Session
	if cfg.DiscordEnabled() {
		session, err = discord.Open(cfg.DiscordBotToken)
		if err != nil {
			log.Warn().Err(err).Msg("discord relay disabled")
		} else {
			discord.NewRelay(session, cfg.DiscordChannelId, cfg.Currency, log).Attach(a.bus)
		}
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)
	flag.Parse()

	ctx := logger.WithContext(context.Background(), log)
	status := commander.Execute(ctx, a)
	if session != nil {
		session.Close()
	}
	a.close()
	os.Exit(int(status))
}

// Package main provides the battle simulator binary: it loads the
// content catalogs, runs one scripted battle with a greedy card picker,
// and prints the battle log.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/hollowmoon/etherclash/internal/config"
	"github.com/hollowmoon/etherclash/internal/game/battle"
	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/deck"
	"github.com/hollowmoon/etherclash/internal/game/effect"
	"github.com/hollowmoon/etherclash/internal/game/passive"
	"github.com/hollowmoon/etherclash/internal/game/rng"
	"github.com/hollowmoon/etherclash/internal/observability"
	"github.com/hollowmoon/etherclash/internal/scripting"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	enemyID := flag.String("enemy", "", "enemy definition ID to fight")
	deckIDs := flag.String("deck", "", "comma-separated card IDs for the player deck")
	playerHP := flag.Int("hp", 80, "player max HP")
	playerEther := flag.Int("ether", 100, "player starting ether")
	maxTurns := flag.Int("turns", 20, "turn limit before the simulation stops")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cat := catalog.New()
	if err := cat.LoadCards(cfg.Catalog.CardsDir); err != nil {
		logger.Fatal("loading cards", zap.Error(err))
	}
	if err := cat.LoadTokens(cfg.Catalog.TokensDir); err != nil {
		logger.Fatal("loading tokens", zap.Error(err))
	}
	if err := cat.LoadEnemies(cfg.Catalog.EnemiesDir); err != nil {
		logger.Fatal("loading enemies", zap.Error(err))
	}

	registry := effect.NewRegistry()
	if err := registry.Validate(cat); err != nil {
		logger.Fatal("validating card specials", zap.Error(err))
	}

	var passives passive.Source = passive.None{}
	if cfg.Scripts.Dir != "" {
		hooks := scripting.NewPassiveHooks(logger, cfg.Scripts.InstructionLimit)
		if err := hooks.LoadDir(cfg.Scripts.Dir); err != nil {
			logger.Fatal("loading relic scripts", zap.Error(err))
		}
		defer hooks.Close()
		passives = hooks
	}

	enemyDef, ok := cat.Enemy(*enemyID)
	if !ok {
		logger.Fatal("unknown enemy", zap.String("enemy", *enemyID))
	}

	rules := battle.Rules{
		MaxSubmitCards:     cfg.Ruleset.MaxSubmitCards,
		HandSize:           cfg.Ruleset.HandSize,
		BaseMaxSpeed:       cfg.Ruleset.BaseMaxSpeed,
		BaseMaxEnergy:      cfg.Ruleset.BaseMaxEnergy,
		OverdriveThreshold: cfg.Ruleset.OverdriveThreshold,
		CardEtherGain:      cfg.Ruleset.CardEtherGain,
		EnemyEtherIncome:   cfg.Ruleset.EnemyEtherIncome,
	}
	engine := battle.New(rules, cat, registry, rng.NewCryptoSource(), passives, logger)

	state, err := engine.Start(battle.Setup{
		Enemy:       enemyDef,
		PlayerName:  "simulant",
		PlayerMaxHP: *playerHP,
		PlayerEther: *playerEther,
		Build:       deck.Build{DeckCards: splitIDs(*deckIDs)},
	})
	if err != nil {
		logger.Fatal("starting battle", zap.Error(err))
	}

	printed := 0
	flush := func() {
		for ; printed < len(state.Log); printed++ {
			fmt.Println(state.Log[printed])
		}
	}

	for turn := 0; turn < *maxTurns && !state.Phase.Terminal(); turn++ {
		if err := engine.Submit(pickCards(state, rules)); err != nil {
			logger.Fatal("submitting cards", zap.Error(err))
		}
		if err := engine.Confirm(); err != nil {
			logger.Fatal("confirming", zap.Error(err))
		}
		for state.Phase == battle.PhaseResolve {
			if state.Awaiting != nil {
				if err := engine.Resume(0); err != nil {
					logger.Fatal("resuming", zap.Error(err))
				}
				continue
			}
			if err := engine.Step(); err != nil {
				logger.Fatal("stepping", zap.Error(err))
			}
		}
		flush()
		if state.Phase == battle.PhasePost {
			if err := engine.Continue(); err != nil {
				logger.Fatal("continuing", zap.Error(err))
			}
		}
	}
	flush()

	logger.Info("simulation finished",
		zap.String("phase", string(state.Phase)),
		zap.String("outcome", string(state.Outcome)),
		zap.Int("turn", state.Turn),
		zap.Int("player_hp", state.Player.HP))
}

// pickCards greedily selects hand cards that fit the remaining speed,
// energy, and count budgets, in hand order.
func pickCards(state *battle.State, rules battle.Rules) []string {
	var tags []string
	speed, energy := 0, 0
	for _, c := range state.Hand {
		if len(tags) >= rules.MaxSubmitCards {
			break
		}
		if speed+c.Def.SpeedCost > state.MaxSpeed || energy+c.Def.ActionCost > state.MaxEnergy {
			continue
		}
		speed += c.Def.SpeedCost
		energy += c.Def.ActionCost
		tags = append(tags, c.Tag)
	}
	return tags
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/combo"
	"github.com/hollowmoon/etherclash/internal/game/deck"
	"github.com/hollowmoon/etherclash/internal/game/effect"
	"github.com/hollowmoon/etherclash/internal/game/enemy"
	"github.com/hollowmoon/etherclash/internal/game/ether"
	"github.com/hollowmoon/etherclash/internal/game/passive"
	"github.com/hollowmoon/etherclash/internal/game/rng"
	"github.com/hollowmoon/etherclash/internal/game/timeline"
	"github.com/hollowmoon/etherclash/internal/game/token"
)

// Engine drives one battle. All collaborators are injected; the engine
// holds no globals and a battle is deterministic with respect to its
// rng.Source.
type Engine struct {
	rules    Rules
	cat      *catalog.Catalog
	reg      *effect.Registry
	src      rng.Source
	passives passive.Source
	logger   *zap.Logger

	state *State
}

// Setup describes the combatants of a new battle.
type Setup struct {
	Enemy *catalog.EnemyDef

	PlayerName  string
	PlayerMaxHP int
	PlayerEther int

	// Build is the primary deck source. When empty, Opening is
	// instantiated as a fixed starting hand instead.
	Build   deck.Build
	Opening []string

	Vanished map[string]bool
	Growth   map[string]deck.GrowthState

	// EscapeBan lists escape-trait card IDs diverted to discard on draw.
	EscapeBan []string

	// Creations maps a creation card ID to the card IDs it may offer as
	// a mid-resolve choice.
	Creations map[string][]string
}

// New builds an Engine. A nil passives source defaults to passive.None;
// a nil logger defaults to a no-op logger.
//
// Precondition: cat, reg, and src must be non-nil.
func New(rules Rules, cat *catalog.Catalog, reg *effect.Registry, src rng.Source, passives passive.Source, logger *zap.Logger) *Engine {
	if passives == nil {
		passives = passive.None{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{rules: rules, cat: cat, reg: reg, src: src, passives: passives, logger: logger}
}

// State returns the live battle state. Callers treat it as read-only;
// all transitions go through engine methods.
func (e *Engine) State() *State { return e.state }

// Adopt replaces the engine's state with a restored snapshot.
//
// Precondition: s must come from Restore against the same catalog.
func (e *Engine) Adopt(s *State) { e.state = s }

// lookup resolves token IDs against the loaded catalog.
func (e *Engine) lookup(id string) (*catalog.TokenDef, bool) {
	return e.cat.Token(id)
}

// enemyDef resolves the battle's enemy definition.
func (e *Engine) enemyDef() (*catalog.EnemyDef, bool) {
	return e.cat.Enemy(e.state.Enemy.DefID)
}

// Start creates the battle state and enters turn 1 select.
//
// Precondition: setup.Enemy must be non-nil and valid;
// setup.PlayerMaxHP > 0.
// Postcondition: Phase == PhaseSelect, Turn == 1, hand drawn, enemy
// plan computed.
func (e *Engine) Start(setup Setup) (*State, error) {
	if setup.Enemy == nil {
		return nil, fmt.Errorf("battle: Start requires an enemy definition")
	}
	if setup.PlayerMaxHP <= 0 {
		return nil, fmt.Errorf("battle: Start requires a positive player max HP")
	}
	if _, ok := e.cat.Enemy(setup.Enemy.ID); !ok {
		return nil, fmt.Errorf("battle: enemy %q is not registered in the catalog", setup.Enemy.ID)
	}

	name := setup.PlayerName
	if name == "" {
		name = "player"
	}
	s := &State{
		Player: Entity{
			Name:     name,
			HP:       setup.PlayerMaxHP,
			MaxHP:    setup.PlayerMaxHP,
			EtherPts: setup.PlayerEther,
		},
		Enemy: EnemySide{
			DefID:    setup.Enemy.ID,
			EtherPts: setup.Enemy.EtherPts,
		},
		EscapeBan: make(map[string]bool, len(setup.EscapeBan)),
		Creations: setup.Creations,
	}
	for i := 0; i < setup.Enemy.Units; i++ {
		unitName := setup.Enemy.Name
		if setup.Enemy.Units > 1 {
			unitName = fmt.Sprintf("%s %d", setup.Enemy.Name, i+1)
		}
		s.Enemy.Units = append(s.Enemy.Units, Entity{
			Name:  unitName,
			HP:    setup.Enemy.MaxHP,
			MaxHP: setup.Enemy.MaxHP,
		})
	}
	for _, id := range setup.EscapeBan {
		s.EscapeBan[id] = true
	}
	// Ether depletion only decides battles where both sides stake a
	// positive pool at the start.
	s.EtherStakes = setup.PlayerEther > 0 && setup.Enemy.EtherPts > 0

	if len(setup.Build.DeckCards) > 0 || len(setup.Build.MainSpecials) > 0 {
		d, opening, lines := deck.Initialize(e.cat, setup.Build, setup.Vanished, setup.Growth, e.src)
		s.Deck = d
		s.Hand = opening
		s.logAll(lines)
	} else {
		s.Hand = deck.FixedOpening(e.cat, setup.Opening)
	}

	e.state = s
	e.applyPassive(&s.Player, e.passives.CombatStart(string(timeline.SidePlayer)))
	s.logf(fmt.Sprintf("battle begins: %s vs %s", s.Player.Name, setup.Enemy.Name))
	e.beginTurn(1)
	return s, nil
}

// applyPassive folds a passive delta bundle into ent and the battle log.
func (e *Engine) applyPassive(ent *Entity, d passive.Deltas) {
	s := e.state
	if d.Heal > 0 {
		ent.Heal(d.Heal)
	}
	ent.Block += d.Block
	ent.Strength += d.Strength
	ent.EtherPts += d.Ether
	s.logAll(d.Lines)
}

// beginTurn enters select for turn t: passive turn-start deltas, derived
// stat recomputation, hand draw, and the enemy plan.
func (e *Engine) beginTurn(t int) {
	s := e.state
	s.Phase = PhaseSelect
	s.Turn = t
	s.Selected = nil
	s.Queue = nil
	s.QIndex = 0
	s.LastSP = 0
	s.Combo = combo.Result{}
	s.Outcome = OutcomeNone
	s.Awaiting = nil

	d := e.passives.TurnStart(string(timeline.SidePlayer), t)
	e.applyPassive(&s.Player, d)

	s.MaxSpeed = e.rules.BaseMaxSpeed + token.SpeedBonus(s.Player.Tokens, e.lookup) + d.MaxSpeed
	s.MaxEnergy = e.rules.BaseMaxEnergy + d.Energy
	if e.rules.OverdriveThreshold > 0 && ether.Overdrive(s.Player.EtherPts, e.rules.OverdriveThreshold) {
		s.MaxEnergy++
		s.logf(fmt.Sprintf("%s overdrives: +1 energy", s.Player.Name))
	}

	if need := e.rules.HandSize - len(s.Hand); need > 0 {
		res := deck.Draw(s.Deck, s.Discard, need, s.EscapeBan, e.src)
		s.Hand = append(s.Hand, res.Drawn...)
		s.Deck = res.Deck
		s.Discard = res.Discard
		if res.Reshuffled {
			s.logf("discard pile reshuffled into the deck")
		}
	}

	if def, ok := e.enemyDef(); ok {
		plan, lines := enemy.Build(def, e.cat, s.Enemy.EtherPts, t, e.src, s.Enemy.Plan)
		s.Enemy.Plan = plan
		s.logAll(lines)
	}

	s.logf(fmt.Sprintf("turn %d: select", t))
	e.logger.Debug("turn begins",
		zap.Int("turn", t),
		zap.Int("max_speed", s.MaxSpeed),
		zap.Int("max_energy", s.MaxEnergy))
}

// Submit commits the player's card selection for the turn, in order.
// Tags reference hand instances. Validation failures return a
// *Rejection and leave the phase unchanged.
//
// Precondition: Phase == PhaseSelect.
// Postcondition: on success Phase == PhaseRespond, the combo is
// detected, and the merged queue is built.
func (e *Engine) Submit(tags []string) error {
	s := e.state
	if s.Phase != PhaseSelect {
		return fmt.Errorf("battle: Submit is only valid in select, not %s", s.Phase)
	}

	cards := make([]*catalog.CardInstance, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			return fmt.Errorf("battle: card %s submitted twice", tag)
		}
		seen[tag] = true
		found := false
		for _, c := range s.Hand {
			if c.Tag == tag {
				cards = append(cards, c)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("battle: card %s is not in hand", tag)
		}
	}

	if len(cards) > e.rules.MaxSubmitCards {
		return &Rejection{Reason: ReasonOverCount}
	}
	speed, energy := 0, 0
	for _, c := range cards {
		speed += c.Def.SpeedCost
		energy += c.Def.ActionCost
	}
	if speed > s.MaxSpeed {
		return &Rejection{Reason: ReasonOverSpeed}
	}
	if energy > s.MaxEnergy {
		return &Rejection{Reason: ReasonOverEnergy}
	}

	s.Selected = cards
	s.Combo = combo.Detect(cards)
	s.logf(fmt.Sprintf("combo: %s (x%.2f)", s.Combo.Label, s.Combo.Multiplier))
	if s.Combo.Name != combo.HighCard {
		e.applyPassive(&s.Player, e.passives.ComboBonus(string(timeline.SidePlayer), string(s.Combo.Name)))
	}

	var enemyActs []timeline.Action
	if s.Enemy.Plan != nil {
		enemyActs = append(enemyActs, s.Enemy.Plan.Actions...)
	}
	s.Queue = timeline.Build(timeline.PlayerActions(cards), enemyActs)
	s.QIndex = 0
	s.Phase = PhaseRespond
	return nil
}

// Reposition moves one of the player's queued actions by delta speed
// positions during respond, clamped into [0, MaxSpeed].
//
// Precondition: Phase == PhaseRespond; tag must name a player action.
func (e *Engine) Reposition(tag string, delta int) error {
	s := e.state
	if s.Phase != PhaseRespond {
		return fmt.Errorf("battle: Reposition is only valid in respond, not %s", s.Phase)
	}
	for _, act := range s.Queue {
		if act.Tag() != tag {
			continue
		}
		if act.Owner != timeline.SidePlayer {
			return fmt.Errorf("battle: cannot reposition an enemy action")
		}
		if !timeline.Reposition(s.Queue, 0, tag, delta, s.MaxSpeed) {
			return fmt.Errorf("battle: action %s is frozen", tag)
		}
		return nil
	}
	return fmt.Errorf("battle: no queued action %s", tag)
}

// Confirm locks the respond phase and enters resolve.
//
// Precondition: Phase == PhaseRespond.
func (e *Engine) Confirm() error {
	s := e.state
	if s.Phase != PhaseRespond {
		return fmt.Errorf("battle: Confirm is only valid in respond, not %s", s.Phase)
	}
	s.Phase = PhaseResolve
	s.logf("resolve begins")
	return nil
}

// Step executes the next queued action, or exits resolve when the queue
// is exhausted.
//
// Precondition: Phase == PhaseResolve and no choice is pending.
// Postcondition: QIndex advanced by one, or the phase left resolve.
func (e *Engine) Step() error {
	s := e.state
	if s.Phase != PhaseResolve {
		return fmt.Errorf("battle: Step is only valid in resolve, not %s", s.Phase)
	}
	if s.Awaiting != nil {
		return fmt.Errorf("battle: a choice is pending; call Resume")
	}
	if s.QIndex >= len(s.Queue) {
		e.finishResolve()
		return nil
	}

	act := s.Queue[s.QIndex]
	e.accrueBlock(act.SP)

	if act.Card == nil {
		s.logf("action without a card skipped")
		e.completeAction(act)
		return nil
	}

	if act.Owner == timeline.SideEnemy {
		idx := act.Unit
		if idx < 0 || idx >= len(s.Enemy.Units) {
			idx = 0
		}
		if !s.Enemy.Units[idx].Alive() {
			s.logf(fmt.Sprintf("%s is down; action skipped", s.Enemy.Units[idx].Name))
			e.completeAction(act)
			return nil
		}
	}

	var delta effect.Delta
	if id := act.Card.Def.Special; id != "" {
		ctx := e.buildContext(act)
		resolved, ok := e.reg.Resolve(id, ctx)
		if !ok {
			s.logf(fmt.Sprintf("unknown special %q skipped", id))
			e.logger.Warn("unknown special", zap.String("special", id), zap.String("card", act.Card.Def.ID))
		}
		delta = resolved
		if delta.Choice != nil {
			s.Awaiting = &Awaiting{
				Prompt:    delta.Choice.Prompt,
				Options:   delta.Choice.Options,
				SourceTag: act.Tag(),
			}
			s.logf("awaiting a card choice")
			return nil
		}
	}

	e.applyAction(act, delta)
	e.completeAction(act)
	return nil
}

// Resume answers a pending mid-resolve choice: the chosen card is
// spliced into the queue as a ghost just after the paused action, then
// the paused action resolves.
//
// Precondition: a choice is pending; 0 <= choice < len(Options).
func (e *Engine) Resume(choice int) error {
	s := e.state
	if s.Phase != PhaseResolve || s.Awaiting == nil {
		return fmt.Errorf("battle: Resume without a pending choice")
	}
	if choice < 0 || choice >= len(s.Awaiting.Options) {
		return fmt.Errorf("battle: choice %d out of range [0,%d)", choice, len(s.Awaiting.Options))
	}

	act := s.Queue[s.QIndex]
	id := s.Awaiting.Options[choice]
	if def, ok := e.cat.Card(id); ok {
		spawned := timeline.Action{
			Owner: act.Owner,
			Unit:  act.Unit,
			Card:  catalog.InstantiateGhost(def),
			SP:    act.SP + 1,
		}
		s.Queue = timeline.SpliceTail(s.Queue, s.QIndex+1, []timeline.Action{spawned})
		s.logf(fmt.Sprintf("%s creates %s", s.Player.Name, def.Name))
	} else {
		s.logf(fmt.Sprintf("unknown card %q skipped", id))
	}
	s.Awaiting = nil

	e.applyAction(act, effect.Delta{})
	e.completeAction(act)
	return nil
}

// Continue leaves post and begins the next turn.
//
// Precondition: Phase == PhasePost.
func (e *Engine) Continue() error {
	s := e.state
	if s.Phase != PhasePost {
		return fmt.Errorf("battle: Continue is only valid in post, not %s", s.Phase)
	}
	e.beginTurn(s.Turn + 1)
	return nil
}

// RevealPlan marks the first n enemy plan actions as visible to insight
// consumers. The engine itself never filters the plan.
func (e *Engine) RevealPlan(n int) {
	s := e.state
	if s.Enemy.Plan == nil {
		return
	}
	if n > len(s.Enemy.Plan.Actions) {
		n = len(s.Enemy.Plan.Actions)
	}
	if n > s.Enemy.Plan.Revealed {
		s.Enemy.Plan.Revealed = n
	}
}

// completeAction advances the cursor past act and runs the shared
// post-action checks.
func (e *Engine) completeAction(act timeline.Action) {
	s := e.state
	s.QIndex++
	s.LastSP = act.SP

	e.expireAtPosition(act.SP)

	if s.Enemy.Defeated() {
		s.Phase = PhaseVictory
		s.Outcome = OutcomeHP
		s.logf("victory")
		return
	}
	if !s.Player.Alive() {
		s.Phase = PhaseDefeat
		s.Outcome = OutcomeHP
		s.logf("defeat")
	}
}

// accrueBlock credits position-keyed block for the timeline advance
// from LastSP to sp.
func (e *Engine) accrueBlock(sp int) {
	s := e.state
	if sp <= s.LastSP {
		return
	}
	credit := func(ent *Entity) {
		gain := token.PositionBlock(ent.Tokens, e.lookup, sp) - token.PositionBlock(ent.Tokens, e.lookup, s.LastSP)
		if gain > 0 {
			ent.Block += gain
		}
	}
	credit(&s.Player)
	for i := range s.Enemy.Units {
		credit(&s.Enemy.Units[i])
	}
}

// expireAtPosition drops position-bound token stacks both sides.
func (e *Engine) expireAtPosition(sp int) {
	s := e.state
	var lines []string
	s.Player.Tokens, lines = token.ExpireAtPosition(s.Player.Tokens, e.lookup, s.Player.Name, sp)
	s.logAll(lines)
	for i := range s.Enemy.Units {
		s.Enemy.Units[i].Tokens, lines = token.ExpireAtPosition(s.Enemy.Units[i].Tokens, e.lookup, s.Enemy.Units[i].Name, sp)
		s.logAll(lines)
	}
}

// buildContext assembles the read-only view handed to effect handlers.
func (e *Engine) buildContext(act timeline.Action) *effect.Context {
	s := e.state

	actor, target := e.actorTarget(act)
	actorSnap := snapshotEntity(actor, s, act.Owner)
	var targetSnap effect.Snapshot
	if target != nil {
		targetSnap = snapshotEntity(target, s, opposite(act.Owner))
	}

	selected, unused := 0, 0
	if act.Owner == timeline.SidePlayer {
		inSelection := make(map[string]bool, len(s.Selected))
		for _, c := range s.Selected {
			if c.Def.Kind == catalog.KindAttack {
				selected++
			}
			inSelection[c.Tag] = true
		}
		for _, c := range s.Hand {
			if !inSelection[c.Tag] && c.Def.Kind == catalog.KindAttack {
				unused++
			}
		}
	} else if s.Enemy.Plan != nil {
		for _, a := range s.Enemy.Plan.Actions {
			if !a.Ghost() && a.Card.Def.Kind == catalog.KindAttack {
				selected++
			}
		}
	}

	upcoming := make([]effect.QueueRef, 0, len(s.Queue)-s.QIndex-1)
	for _, a := range s.Queue[s.QIndex+1:] {
		upcoming = append(upcoming, effect.QueueRef{
			Tag:   a.Tag(),
			Owner: a.Owner,
			SP:    a.SP,
			Ghost: a.Ghost(),
		})
	}

	maxSP := s.MaxSpeed
	if act.Owner == timeline.SideEnemy {
		if def, ok := e.enemyDef(); ok {
			maxSP = def.MaxSpeed
		}
	}

	strength := 0
	if actor != nil {
		strength = actor.Strength + token.StrengthBonus(actor.Tokens, e.lookup)
	}
	pending := timeline.Base(act.Card.Damage(), strength, 0) * act.Card.Hits()

	return &effect.Context{
		Card:            act.Card,
		ActorSide:       act.Owner,
		Actor:           actorSnap,
		Target:          targetSnap,
		CurrentSP:       act.SP,
		MaxSP:           maxSP,
		Turn:            s.Turn,
		PendingDamage:   pending,
		SelectedAttacks: selected,
		UnusedAttacks:   unused,
		SoloAttack:      selected == 1,
		Upcoming:        upcoming,
		CreationOptions: s.Creations[act.Card.Def.ID],
		Src:             e.src,
	}
}

// actorTarget resolves the acting and targeted entities of act. Target
// is nil when every opposing unit is down.
func (e *Engine) actorTarget(act timeline.Action) (actor, target *Entity) {
	s := e.state
	if act.Owner == timeline.SidePlayer {
		actor = &s.Player
		if idx := s.Enemy.FirstAlive(); idx >= 0 {
			target = &s.Enemy.Units[idx]
		}
		return actor, target
	}
	idx := act.Unit
	if idx < 0 || idx >= len(s.Enemy.Units) {
		idx = 0
	}
	return &s.Enemy.Units[idx], &s.Player
}

// snapshotEntity builds the handler-facing view of ent. Enemy entities
// report the side-level ether pool.
func snapshotEntity(ent *Entity, s *State, side timeline.Side) effect.Snapshot {
	if ent == nil {
		return effect.Snapshot{}
	}
	pts := ent.EtherPts
	if side == timeline.SideEnemy {
		pts = s.Enemy.EtherPts
	}
	return effect.Snapshot{
		Name:     ent.Name,
		HP:       ent.HP,
		MaxHP:    ent.MaxHP,
		Block:    ent.Block,
		Strength: ent.Strength,
		EtherPts: pts,
	}
}

// opposite returns the other side.
func opposite(side timeline.Side) timeline.Side {
	if side == timeline.SidePlayer {
		return timeline.SideEnemy
	}
	return timeline.SidePlayer
}

// applyAction resolves act's card body under delta: the damage
// pipeline, block gain, applied tokens, ether and queue interactions,
// and usage-token consumption.
func (e *Engine) applyAction(act timeline.Action, delta effect.Delta) {
	s := e.state
	actor, target := e.actorTarget(act)
	card := act.Card

	s.logAll(delta.Lines)

	reps := 1 + delta.Repeat
	if reps < 1 {
		reps = 1
	}

	if card.Damage() > 0 && target != nil {
		e.resolveAttack(act, actor, target, delta, reps)
	}

	if gain := card.Block(); gain > 0 {
		total := gain * reps
		actor.Block += total
		s.logf(fmt.Sprintf("%s gains %d block", actor.Name, total))
	}

	e.applyCardTokens(act, actor, target)

	if delta.EtherGain > 0 {
		e.gainEther(act.Owner, delta.EtherGain)
	}
	if delta.EtherDrain > 0 {
		e.drainEther(opposite(act.Owner), delta.EtherDrain)
	}

	for _, m := range delta.Moves {
		e.applyMove(m)
	}
	for _, sp := range delta.Spawns {
		e.applySpawn(act, sp)
	}

	if card.Damage() > 0 {
		e.consumeUsageTokens(actor)
	}
}

// resolveAttack runs the damage pipeline for one action: base damage
// from stat and strength, combo and effect multipliers applied once per
// execution, block absorption, and the execute threshold.
func (e *Engine) resolveAttack(act timeline.Action, actor, target *Entity, delta effect.Delta, reps int) {
	s := e.state
	card := act.Card

	if delta.ClearTargetBlock && target.Block > 0 {
		s.logf(fmt.Sprintf("%s's block is shattered", target.Name))
		target.Block = 0
	}
	if delta.StealBlock && target.Block > 0 {
		actor.Block += target.Block
		target.Block = 0
	}

	strength := actor.Strength + token.StrengthBonus(actor.Tokens, e.lookup)
	base := timeline.Base(card.Damage(), strength, 0) * card.Hits()

	mult := 1.0
	if act.Owner == timeline.SidePlayer && s.Combo.Multiplier > 0 && comboMatched(s.Combo, card.Tag) {
		mult = s.Combo.Multiplier
	}
	if delta.DamageMult > 0 {
		mult *= delta.DamageMult
	}
	total := timeline.Final(timeline.Multiplied(base, mult), delta.FlatBonus)

	for rep := 0; rep < reps; rep++ {
		hp := total
		blocked := 0
		if !delta.IgnoreBlock {
			var remaining int
			hp, remaining = timeline.Absorb(total, target.Block)
			blocked = target.Block - remaining
			target.Block = remaining
		}
		target.Damage(hp)
		s.logf(fmt.Sprintf("%s hits %s for %d (%d blocked)", actor.Name, target.Name, hp, blocked))
		if !target.Alive() {
			break
		}
	}

	if delta.ExecuteBelowPct > 0 && target.Alive() &&
		target.HP*100 <= delta.ExecuteBelowPct*target.MaxHP {
		target.HP = 0
		s.logf(fmt.Sprintf("%s is executed", target.Name))
	}
}

// comboMatched reports whether tag belongs to the detected combo.
func comboMatched(res combo.Result, tag string) bool {
	for _, t := range res.Matched {
		if t == tag {
			return true
		}
	}
	return false
}

// applyCardTokens grants the card's applied tokens to self or target.
func (e *Engine) applyCardTokens(act timeline.Action, actor, target *Entity) {
	s := e.state
	for _, at := range act.Card.Def.Tokens {
		scope, ok := token.ParseScope(at.Scope)
		if !ok {
			s.logf(fmt.Sprintf("unknown token scope %q skipped", at.Scope))
			continue
		}
		def, ok := e.cat.Token(at.Token)
		if !ok {
			s.logf(fmt.Sprintf("unknown token %q skipped", at.Token))
			continue
		}
		dest := actor
		if at.Target == "enemy" {
			if target == nil {
				continue
			}
			dest = target
		}
		var lines []string
		dest.Tokens, lines = token.Add(dest.Tokens, def, dest.Name, at.Stacks, scope, s.Turn, act.SP)
		s.logAll(lines)
	}
}

// gainEther credits a side's ether pool.
func (e *Engine) gainEther(side timeline.Side, amount int) {
	s := e.state
	if side == timeline.SidePlayer {
		s.Player.EtherPts += amount
	} else {
		s.Enemy.EtherPts += amount
	}
}

// drainEther debits a side's ether pool, flooring at zero.
func (e *Engine) drainEther(side timeline.Side, amount int) {
	s := e.state
	if side == timeline.SidePlayer {
		s.Player.EtherPts -= amount
		if s.Player.EtherPts < 0 {
			s.Player.EtherPts = 0
		}
	} else {
		s.Enemy.EtherPts -= amount
		if s.Enemy.EtherPts < 0 {
			s.Enemy.EtherPts = 0
		}
	}
}

// applyMove executes one repositioning request against the unexecuted
// tail, clamped to the moved action's owner speed budget.
func (e *Engine) applyMove(m effect.Move) {
	s := e.state
	if m.Freeze {
		timeline.Freeze(s.Queue, s.QIndex+1, m.Tag)
		return
	}
	maxSP := s.MaxSpeed
	for _, a := range s.Queue[s.QIndex+1:] {
		if a.Tag() == m.Tag && a.Owner == timeline.SideEnemy {
			if def, ok := e.enemyDef(); ok {
				maxSP = def.MaxSpeed
			}
			break
		}
	}
	timeline.Reposition(s.Queue, s.QIndex+1, m.Tag, m.Delta, maxSP)
}

// applySpawn splices ghost copies into the queue tail.
func (e *Engine) applySpawn(act timeline.Action, sp effect.Spawn) {
	s := e.state
	def, ok := e.cat.Card(sp.CardID)
	if !ok {
		s.logf(fmt.Sprintf("unknown card %q skipped", sp.CardID))
		return
	}
	acts := make([]timeline.Action, 0, sp.Count)
	for i := 0; i < sp.Count; i++ {
		acts = append(acts, timeline.Action{
			Owner: act.Owner,
			Unit:  act.Unit,
			Card:  catalog.InstantiateGhost(def),
			SP:    sp.SP,
		})
	}
	s.Queue = timeline.SpliceTail(s.Queue, s.QIndex+1, acts)
}

// consumeUsageTokens burns every usage-scope stack on ent; usage tokens
// are single-shot and spend on the owner's next qualifying action.
func (e *Engine) consumeUsageTokens(ent *Entity) {
	s := e.state
	ids := make([]string, 0, len(ent.Tokens.Usage))
	for _, st := range ent.Tokens.Usage {
		ids = append(ids, st.TokenID)
	}
	for _, id := range ids {
		var lines []string
		ent.Tokens, _, lines = token.ConsumeUsage(ent.Tokens, e.lookup, ent.Name, id)
		s.logAll(lines)
	}
}

// finishResolve runs the resolve-exit bookkeeping: turn-token expiry,
// block reset, discard, ether accrual, and outcome evaluation.
func (e *Engine) finishResolve() {
	s := e.state

	var lines []string
	s.Player.Tokens, lines = token.ExpireTurn(s.Player.Tokens, e.lookup, s.Player.Name, s.Turn)
	s.logAll(lines)
	for i := range s.Enemy.Units {
		s.Enemy.Units[i].Tokens, lines = token.ExpireTurn(s.Enemy.Units[i].Tokens, e.lookup, s.Enemy.Units[i].Name, s.Turn)
		s.logAll(lines)
	}

	if !token.RetainsBlock(s.Player.Tokens, e.lookup) {
		s.Player.Block = 0
	}
	for i := range s.Enemy.Units {
		if !token.RetainsBlock(s.Enemy.Units[i].Tokens, e.lookup) {
			s.Enemy.Units[i].Block = 0
		}
	}

	if len(s.Selected) > 0 {
		used := make(map[string]bool, len(s.Selected))
		for _, c := range s.Selected {
			used[c.Tag] = true
		}
		var kept []*catalog.CardInstance
		for _, c := range s.Hand {
			if used[c.Tag] {
				s.Discard = append(s.Discard, c)
			} else {
				kept = append(kept, c)
			}
		}
		s.Hand = kept
	}

	// Depletion is judged before income: a pool drained to zero this
	// turn decides the battle instead of refilling.
	switch {
	case s.Enemy.Defeated():
		s.Phase = PhaseVictory
		s.Outcome = OutcomeHP
		s.logf("victory")
	case s.EtherStakes && s.Enemy.EtherPts <= 0:
		s.Phase = PhaseVictory
		s.Outcome = OutcomeEther
		s.logf("victory: the enemy's ether is spent")
	case !s.Player.Alive():
		s.Phase = PhaseDefeat
		s.Outcome = OutcomeHP
		s.logf("defeat")
	case s.EtherStakes && s.Player.EtherPts <= 0:
		s.Phase = PhaseDefeat
		s.Outcome = OutcomeEther
		s.logf("defeat: ether exhausted")
	default:
		if gain := comboEtherGain(e.rules.CardEtherGain, len(s.Selected), s.Combo.Multiplier); gain > 0 {
			s.Player.EtherPts += gain
			s.logf(fmt.Sprintf("%s gathers %d ether", s.Player.Name, gain))
		}
		s.Enemy.EtherPts += e.rules.EnemyEtherIncome
		s.Phase = PhasePost
		s.logf(fmt.Sprintf("turn %d ends", s.Turn))
	}
}

// comboEtherGain is the per-turn player ether income: a flat amount per
// resolved card, multiplied by the turn's combo multiplier.
func comboEtherGain(perCard, cards int, mult float64) int {
	if perCard <= 0 || cards <= 0 {
		return 0
	}
	if mult <= 0 {
		mult = 1.0
	}
	return timeline.Multiplied(perCard*cards, mult)
}

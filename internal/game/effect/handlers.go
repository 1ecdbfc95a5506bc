package effect

import "fmt"

// Special IDs shipped with the base ruleset.
const (
	SpecialPushBack   = "push_back"
	SpecialHasten     = "hasten"
	SpecialFreeze     = "freeze"
	SpecialBreach     = "breach"
	SpecialFleche     = "fleche"
	SpecialExecute    = "execute"
	SpecialDuelist    = "duelist"
	SpecialFlurry     = "flurry"
	SpecialPierce     = "pierce"
	SpecialPlunder    = "plunder"
	SpecialShatter    = "shatter"
	SpecialOvercharge = "overcharge"
	SpecialEtherDrain = "ether_drain"
)

// executeThresholdPct is the HP percentage under which execute kills.
const executeThresholdPct = 25

// overchargeEther is the flat ether grant of overcharge.
const overchargeEther = 30

// etherDrainAmount is the flat ether drain of ether_drain.
const etherDrainAmount = 20

// NewRegistry returns a Registry with every base-ruleset handler
// registered. Content validation (Registry.Validate) should run against
// the loaded catalog before any battle starts.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register(SpecialPushBack, pushBack)
	r.Register(SpecialHasten, hasten)
	r.Register(SpecialFreeze, freeze)
	r.Register(SpecialBreach, breach)
	r.Register(SpecialFleche, fleche)
	r.Register(SpecialExecute, execute)
	r.Register(SpecialDuelist, duelist)
	r.Register(SpecialFlurry, flurry)
	r.Register(SpecialPierce, pierce)
	r.Register(SpecialPlunder, plunder)
	r.Register(SpecialShatter, shatter)
	r.Register(SpecialOvercharge, overcharge)
	r.Register(SpecialEtherDrain, etherDrain)
	return r
}

// nextOpposing returns the first unexecuted action owned by the side
// opposite the actor, preferring non-ghost actions.
func nextOpposing(ctx *Context) (QueueRef, bool) {
	for _, ref := range ctx.Upcoming {
		if ref.Owner != ctx.ActorSide && !ref.Ghost {
			return ref, true
		}
	}
	for _, ref := range ctx.Upcoming {
		if ref.Owner != ctx.ActorSide {
			return ref, true
		}
	}
	return QueueRef{}, false
}

// nextOwn returns the actor's own next unexecuted action.
func nextOwn(ctx *Context) (QueueRef, bool) {
	for _, ref := range ctx.Upcoming {
		if ref.Owner == ctx.ActorSide {
			return ref, true
		}
	}
	return QueueRef{}, false
}

// pushBack shoves the opponent's next action 2 positions later.
func pushBack(ctx *Context) Delta {
	ref, ok := nextOpposing(ctx)
	if !ok {
		return Delta{Lines: []string{"push finds nothing to move"}}
	}
	return Delta{
		Moves: []Move{{Tag: ref.Tag, Delta: +2}},
		Lines: []string{fmt.Sprintf("%s pushes the next enemy action back", ctx.Actor.Name)},
	}
}

// hasten pulls the actor's own next action 2 positions earlier.
func hasten(ctx *Context) Delta {
	ref, ok := nextOwn(ctx)
	if !ok {
		return Delta{Lines: []string{"hasten finds nothing to move"}}
	}
	return Delta{
		Moves: []Move{{Tag: ref.Tag, Delta: -2}},
		Lines: []string{fmt.Sprintf("%s hastens their next action", ctx.Actor.Name)},
	}
}

// freeze pins the opponent's next action in place.
func freeze(ctx *Context) Delta {
	ref, ok := nextOpposing(ctx)
	if !ok {
		return Delta{Lines: []string{"freeze finds nothing to pin"}}
	}
	return Delta{
		Moves: []Move{{Tag: ref.Tag, Freeze: true}},
		Lines: []string{fmt.Sprintf("%s freezes the next enemy action", ctx.Actor.Name)},
	}
}

// breach spawns two ghost copies of the acting card just after the
// current position. Ghost-originated invocations are no-ops so creation
// can never cascade off its own spawns.
func breach(ctx *Context) Delta {
	if ctx.Card.Ghost {
		return Delta{}
	}
	return Delta{
		Spawns: []Spawn{{CardID: ctx.Card.Def.ID, SP: ctx.CurrentSP + 1, Count: 2}},
		Lines:  []string{fmt.Sprintf("%s breaches: echoes form on the timeline", ctx.Actor.Name)},
	}
}

// fleche pauses resolution for a player choice among the offered
// creation options; the chosen card is spawned as a ghost on Resume.
func fleche(ctx *Context) Delta {
	if ctx.Card.Ghost || len(ctx.CreationOptions) == 0 {
		return Delta{}
	}
	return Delta{
		Choice: &Choice{
			Prompt:  "choose a card to create",
			Options: ctx.CreationOptions,
		},
	}
}

// execute kills the target outright when the pending damage would leave
// it at or under the threshold percentage of max HP.
func execute(ctx *Context) Delta {
	return Delta{ExecuteBelowPct: executeThresholdPct}
}

// duelist doubles damage when the actor committed exactly one attack
// card this turn.
func duelist(ctx *Context) Delta {
	if !ctx.SoloAttack {
		return Delta{}
	}
	return Delta{
		DamageMult: 2.0,
		Lines:      []string{fmt.Sprintf("%s duels alone: damage doubled", ctx.Actor.Name)},
	}
}

// flurry repeats the action once per attack card left unused in hand.
func flurry(ctx *Context) Delta {
	if ctx.UnusedAttacks <= 0 {
		return Delta{}
	}
	return Delta{
		Repeat: ctx.UnusedAttacks,
		Lines:  []string{fmt.Sprintf("%s unleashes a flurry x%d", ctx.Actor.Name, ctx.UnusedAttacks+1)},
	}
}

// pierce ignores the target's block entirely.
func pierce(ctx *Context) Delta {
	return Delta{IgnoreBlock: true}
}

// plunder steals the target's remaining block.
func plunder(ctx *Context) Delta {
	if ctx.Target.Block <= 0 {
		return Delta{}
	}
	return Delta{
		StealBlock: true,
		Lines:      []string{fmt.Sprintf("%s plunders %d block", ctx.Actor.Name, ctx.Target.Block)},
	}
}

// shatter clears the target's block before damage lands.
func shatter(ctx *Context) Delta {
	return Delta{ClearTargetBlock: true}
}

// overcharge grants the actor a flat ether burst.
func overcharge(ctx *Context) Delta {
	return Delta{
		EtherGain: overchargeEther,
		Lines:     []string{fmt.Sprintf("%s overcharges: +%d ether", ctx.Actor.Name, overchargeEther)},
	}
}

// etherDrain siphons ether from the target's side.
func etherDrain(ctx *Context) Delta {
	return Delta{
		EtherDrain: etherDrainAmount,
		Lines:      []string{fmt.Sprintf("%s drains %d ether", ctx.Actor.Name, etherDrainAmount)},
	}
}

package combat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/dice"
	"github.com/cory-johannsen/brave/internal/game/status"
)

// State is the orchestrator state of an Encounter.
type State int

const (
	StateAwaitingNextActor State = iota
	StateCollectingAction
	StateResolving
	StatePostTurnCleanup
	StateEncounterOver
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateAwaitingNextActor:
		return "awaiting_next_actor"
	case StateCollectingAction:
		return "collecting_action"
	case StateResolving:
		return "resolving"
	case StatePostTurnCleanup:
		return "post_turn_cleanup"
	case StateEncounterOver:
		return "encounter_over"
	default:
		return "unknown"
	}
}

// ReviveRule may bring a combatant back when its HP reaches zero. It returns
// the HP to revive with; zero or less leaves the combatant dead.
type ReviveRule func(c *Combatant) int

// Deps are the collaborators of an Encounter. Zero-valued optional fields get
// defaults in NewEncounter.
type Deps struct {
	Balance Balance
	// Sources maps each side to its decision source. Both sides are required.
	Sources map[Alignment]DecisionSource
	// Skills defaults to a registry holding only the basic attacks.
	Skills *SkillRegistry
	// Effects resolves skill effect IDs; defaults to an empty registry.
	Effects *status.Registry
	// Roller defaults to a crypto-seeded roller.
	Roller *dice.Roller
	Sink   EventSink
	Logger *zap.Logger
	Revive ReviveRule
}

// TurnReport describes what one Step did.
type TurnReport struct {
	Turn    int
	ActorID string
	Action  Action
	// Skipped is true when an action-blocking effect consumed the turn.
	Skipped    bool
	SkipReason string
	Events     []DamageEvent
	// CastStarted and CastCompleted hold skill IDs.
	CastStarted   string
	CastCompleted string
	CastCanceled  []string
}

// Encounter drives one battle through the orchestrator state machine. An
// Encounter is owned by a single goroutine; it is not safe for concurrent use.
type Encounter struct {
	id         uuid.UUID
	combatants []*Combatant
	bal        Balance
	sched      *Scheduler
	res        *Resolver
	roll       *dice.Roller
	skills     *SkillRegistry
	effects    *status.Registry
	sources    map[Alignment]DecisionSource
	sink       EventSink
	logger     *zap.Logger
	revive     ReviveRule

	state   State
	turn    int
	ticks   int
	outcome *Outcome

	report   *TurnReport
	brokeNow map[string]bool
}

// NewEncounter creates an encounter over combatants. Combatant insertion
// order is the final scheduler tie-break.
//
// Precondition: combatants have unique non-empty IDs, valid HP and Brave
// pools, and at least one active member on each side.
// Postcondition: Returns a ready Encounter in StateAwaitingNextActor.
func NewEncounter(id uuid.UUID, combatants []*Combatant, deps Deps) (*Encounter, error) {
	if err := deps.Balance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}
	for _, a := range []Alignment{AlignPlayer, AlignEnemy} {
		if deps.Sources[a] == nil {
			return nil, fmt.Errorf("no decision source for side %s", a)
		}
	}
	seen := make(map[string]bool, len(combatants))
	sides := make(map[Alignment]bool)
	for i, c := range combatants {
		if c == nil || c.ID == "" {
			return nil, fmt.Errorf("combatant %d: id must not be empty", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("combatant %q: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if c.Alignment != AlignPlayer && c.Alignment != AlignEnemy {
			return nil, fmt.Errorf("combatant %q: alignment must be player or enemy", c.ID)
		}
		if c.MaxHP < 1 || c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
			return nil, fmt.Errorf("combatant %q: hp %d/%d out of range", c.ID, c.CurrentHP, c.MaxHP)
		}
		if c.Brave.Max < 0 || c.Brave.Current < 0 || c.Brave.Current > c.Brave.Max {
			return nil, fmt.Errorf("combatant %q: brave %d/%d out of range", c.ID, c.Brave.Current, c.Brave.Max)
		}
		if c.Effects == nil {
			c.Effects = status.NewActiveSet()
		}
		c.order = i
		if c.Active() {
			sides[c.Alignment] = true
		}
	}
	if !sides[AlignPlayer] || !sides[AlignEnemy] {
		return nil, fmt.Errorf("encounter needs an active combatant on each side")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("encounter", id.String()))
	roll := deps.Roller
	if roll == nil {
		roll = dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	}
	skills := deps.Skills
	if skills == nil {
		skills = NewSkillRegistry(deps.Balance)
	}
	effects := deps.Effects
	if effects == nil {
		effects = status.NewRegistry()
	}
	sink := deps.Sink
	if sink == nil {
		sink = NopSink{}
	}
	list := make([]*Combatant, len(combatants))
	copy(list, combatants)
	return &Encounter{
		id:         id,
		combatants: list,
		bal:        deps.Balance,
		sched:      NewScheduler(deps.Balance.GaugeScale),
		res:        NewResolver(deps.Balance, roll, logger),
		roll:       roll,
		skills:     skills,
		effects:    effects,
		sources:    deps.Sources,
		sink:       sink,
		logger:     logger,
		revive:     deps.Revive,
		state:      StateAwaitingNextActor,
	}, nil
}

// ID returns the encounter ID.
func (e *Encounter) ID() uuid.UUID { return e.id }

// State returns the current orchestrator state.
func (e *Encounter) State() State { return e.state }

// Turn returns the number of actor turns taken so far.
func (e *Encounter) Turn() int { return e.turn }

// Ticks returns the number of scheduler ticks elapsed.
func (e *Encounter) Ticks() int { return e.ticks }

// Over reports whether the encounter has ended.
func (e *Encounter) Over() bool { return e.state == StateEncounterOver }

// Outcome returns the result once the encounter is over.
func (e *Encounter) Outcome() (Outcome, bool) {
	if e.outcome == nil {
		return Outcome{}, false
	}
	return *e.outcome, true
}

// Resolver returns the encounter's resolver.
func (e *Encounter) Resolver() *Resolver { return e.res }

// Combatants returns all combatants in insertion order, including removed ones.
func (e *Encounter) Combatants() []*Combatant {
	out := make([]*Combatant, len(e.combatants))
	copy(out, e.combatants)
	return out
}

// Combatant returns the combatant with id.
func (e *Encounter) Combatant(id string) (*Combatant, bool) {
	for _, c := range e.combatants {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Run steps until the encounter ends or ctx is canceled.
//
// Postcondition: Returns the Outcome, or ctx's error wrapped.
func (e *Encounter) Run(ctx context.Context) (Outcome, error) {
	for !e.Over() {
		if _, err := e.Step(ctx); err != nil {
			return Outcome{}, err
		}
	}
	return *e.outcome, nil
}

// Step advances the encounter through exactly one actor turn or one cast
// completion, ticking the scheduler as needed.
//
// Postcondition: Returns ErrEncounterOver once the encounter has ended, or an
// error wrapping ctx.Err() when the decision source is interrupted.
func (e *Encounter) Step(ctx context.Context) (TurnReport, error) {
	if e.Over() {
		return TurnReport{}, ErrEncounterOver
	}
	if err := ctx.Err(); err != nil {
		return TurnReport{}, fmt.Errorf("step: %w", err)
	}
	e.setState(StateAwaitingNextActor)
	for idle := 0; idle <= maxIdleTicks; idle++ {
		if c := e.sched.CompletedCast(e.combatants); c != nil {
			return e.completeCast(c), nil
		}
		if c := e.sched.NextReady(e.combatants); c != nil {
			return e.takeTurn(ctx, c)
		}
		e.sched.Tick(e.combatants)
		e.ticks++
	}
	return TurnReport{}, fmt.Errorf("step: no combatant became ready within %d ticks", maxIdleTicks)
}

func (e *Encounter) takeTurn(ctx context.Context, actor *Combatant) (TurnReport, error) {
	e.turn++
	e.beginReport(actor.ID)
	e.logger.Debug("turn start",
		zap.Int("turn", e.turn),
		zap.String("actor", actor.ID),
		zap.Int("hp", actor.CurrentHP),
		zap.Int("brave", actor.Brave.Current),
	)

	e.startOfTurn(actor)
	switch {
	case !actor.Active():
	case !actor.Effects.CanAct():
		e.report.Skipped = true
		e.report.SkipReason = actor.Effects.Blocking()
		// A skipped turn does not spend the gauge NextReady just drained.
		actor.Gauge = GaugeMax
		e.logger.Debug("turn skipped", zap.String("actor", actor.ID), zap.String("effect", e.report.SkipReason))
	default:
		e.setState(StateCollectingAction)
		action, err := e.collect(ctx, actor)
		if err != nil {
			rep := *e.report
			e.report = nil
			return rep, err
		}
		e.report.Action = action
		e.setState(StateResolving)
		e.resolve(actor, action)
	}
	e.postTurn(actor)
	return e.endReport(), nil
}

// startOfTurn applies damage and heal over time ticks to actor.
func (e *Encounter) startOfTurn(actor *Combatant) {
	for _, t := range actor.Effects.StartOfTurn(actor.MaxHP, e.bal.DoTFraction, e.bal.HoTFraction) {
		if !actor.Active() {
			return
		}
		ev := DamageEvent{
			SourceID: actor.ID,
			TargetID: actor.ID,
			Resource: ResourceHP,
			Effect:   t.EffectID,
		}
		switch t.Kind {
		case status.KindDamageOverTime:
			amount := t.Amount
			if !t.CanKill && actor.CurrentHP-amount < 1 {
				amount = actor.CurrentHP - 1
			}
			if amount <= 0 {
				continue
			}
			ev.Amount = actor.ApplyDamage(amount)
		case status.KindHealOverTime:
			ev.Amount = actor.Heal(t.Amount)
			ev.Heal = true
		}
		e.emit(ev)
	}
}

// collect asks the actor's decision source for a valid action, re-requesting
// with the rejection reason up to MaxReselect times before defending.
func (e *Encounter) collect(ctx context.Context, actor *Combatant) (Action, error) {
	allies, enemies := e.sides(actor)
	controlled := actor.Effects.IsControlled()
	src := e.sources[actor.Alignment]
	if controlled {
		src = e.sources[actor.Alignment.Opponent()]
		allies, enemies = enemies, allies
	}
	var rejected error
	for attempt := 0; attempt <= e.bal.MaxReselect; attempt++ {
		req := DecisionRequest{
			Turn:       e.turn,
			Actor:      actor,
			Allies:     allies,
			Enemies:    enemies,
			Controlled: controlled,
			Attempt:    attempt,
			Rejected:   rejected,
		}
		action, err := src.ChooseAction(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Action{}, fmt.Errorf("choosing action for %s: %w", actor.ID, err)
			}
			e.logger.Warn("decision source failed", zap.String("actor", actor.ID), zap.Error(err))
			rejected = err
			continue
		}
		valid, err := e.validate(actor, action, req)
		if err != nil {
			e.logger.Debug("action rejected",
				zap.String("actor", actor.ID),
				zap.Stringer("kind", action.Kind),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			rejected = err
			continue
		}
		return valid, nil
	}
	e.logger.Debug("reselect limit reached, defending", zap.String("actor", actor.ID))
	return Defend(), nil
}

// sides returns the active allies (excluding actor) and enemies of actor.
func (e *Encounter) sides(actor *Combatant) (allies, enemies []*Combatant) {
	for _, c := range e.combatants {
		if c == actor || !c.Active() {
			continue
		}
		if c.Alignment == actor.Alignment {
			allies = append(allies, c)
		} else {
			enemies = append(enemies, c)
		}
	}
	return allies, enemies
}

// validate checks action against the request perspective and returns it with
// the skill ID and targets normalized.
func (e *Encounter) validate(actor *Combatant, a Action, req DecisionRequest) (Action, error) {
	var basic string
	var want Category
	switch a.Kind {
	case ActionDefend:
		return Defend(), nil
	case ActionBraveAttack:
		basic, want = BasicBraveID, CategoryBrave
	case ActionHPAttack:
		basic, want = BasicHPID, CategoryHP
	case ActionSkill:
		if a.SkillID == "" {
			return a, fmt.Errorf("%w: skill action without skill id", ErrInvalidAction)
		}
	default:
		return a, fmt.Errorf("%w: kind %s", ErrInvalidAction, a.Kind)
	}
	id := a.SkillID
	if id == "" {
		id = basic
	}
	if id != BasicBraveID && id != BasicHPID && !actor.KnowsSkill(id) {
		return a, fmt.Errorf("%w: %s does not know %q", ErrUnknownSkill, actor.ID, id)
	}
	skill, ok := e.skills.Get(id)
	if !ok {
		return a, fmt.Errorf("%w: %q", ErrUnknownSkill, id)
	}
	if want != "" && skill.Category != want {
		return a, fmt.Errorf("%w: %s with %s skill %q", ErrInvalidAction, a.Kind, skill.Category, id)
	}
	if skill.Category == CategoryHP && !e.res.CanUseHPAttack(actor) {
		return a, fmt.Errorf("%s has %d/%d brave: %w", actor.ID, actor.Brave.Current, actor.Brave.Max, ErrInsufficientBrave)
	}
	targets, err := pickTargets(actor, skill, a.Targets, req)
	if err != nil {
		return a, err
	}
	return Action{Kind: a.Kind, SkillID: id, Targets: targets}, nil
}

func pickTargets(actor *Combatant, skill *SkillDef, ids []string, req DecisionRequest) ([]string, error) {
	if skill.Target == TargetSelf {
		return []string{actor.ID}, nil
	}
	if len(ids) == 0 || len(ids) > skill.TargetCap() {
		return nil, fmt.Errorf("%w: %q takes 1 to %d targets, got %d", ErrInvalidTarget, skill.ID, skill.TargetCap(), len(ids))
	}
	pool := req.Enemies
	if skill.Target == TargetAlly {
		pool = append([]*Combatant{actor}, req.Allies...)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: %q listed twice", ErrInvalidTarget, id)
		}
		seen[id] = true
		found := false
		for _, c := range pool {
			if c.ID == id && c.Active() {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q is not a living %s of %s", ErrInvalidTarget, id, skill.Target, actor.ID)
		}
	}
	return append([]string(nil), ids...), nil
}

// resolve carries out a validated action.
func (e *Encounter) resolve(actor *Combatant, a Action) {
	if a.Kind == ActionDefend {
		e.logger.Debug("defend", zap.String("actor", actor.ID))
		return
	}
	skill, ok := e.skills.Get(a.SkillID)
	if !ok {
		e.logger.Error("validated skill vanished, defending", zap.String("skill", a.SkillID))
		return
	}
	if skill.CastTicks > 0 {
		pc := actor.beginCast(skill, a.Targets)
		e.report.CastStarted = skill.ID
		e.logger.Debug("cast started",
			zap.String("actor", actor.ID),
			zap.String("skill", skill.ID),
			zap.Int("ticks", pc.TicksRemaining),
			zap.Int("brave_spent", pc.BraveSpent),
		)
		return
	}
	e.applySkill(actor, skill, a.Targets, nil)
}

// applySkill resolves skill on each active target and then applies its
// status effects. pc is non-nil when a cast completes with Brave already spent.
func (e *Encounter) applySkill(actor *Combatant, skill *SkillDef, targetIDs []string, pc *PendingCast) {
	for _, id := range targetIDs {
		t, ok := e.Combatant(id)
		if !ok || !t.Active() {
			continue
		}
		switch skill.Category {
		case CategoryBrave:
			e.emit(e.res.BraveAttack(actor, t, skill))
		case CategoryHP:
			if pc != nil {
				e.emit(e.res.SpentHPAttack(actor, t, skill, pc.BraveSpent))
				break
			}
			ev, err := e.res.HPAttack(actor, t, skill)
			if err != nil {
				e.logger.Warn("hp attack failed after validation", zap.Error(err))
				return
			}
			e.emit(ev)
		case CategorySupport:
			if skill.HealFraction > 0 {
				e.emit(e.res.Heal(actor, t, skill))
			}
		}
		e.applyEffects(actor, t, skill, "target")
	}
	e.applyEffects(actor, actor, skill, "self")
}

func (e *Encounter) applyEffects(actor, target *Combatant, skill *SkillDef, on string) {
	for _, app := range skill.Effects {
		appOn := app.On
		if appOn == "" {
			appOn = "target"
		}
		if appOn != on {
			continue
		}
		def, ok := e.effects.Get(app.Effect)
		if !ok {
			e.logger.Warn("skill references unknown effect", zap.String("skill", skill.ID), zap.String("effect", app.Effect))
			continue
		}
		if app.Chance > 0 && !e.roll.Chance("effect "+app.Effect, app.Chance) {
			continue
		}
		eff, err := target.ApplyEffect(def, app.Intensity, app.Duration)
		if err != nil {
			e.logger.Warn("applying effect", zap.String("effect", app.Effect), zap.Error(err))
			continue
		}
		if eff != nil {
			e.logger.Debug("effect applied",
				zap.String("source", actor.ID),
				zap.String("target", target.ID),
				zap.String("effect", def.ID),
				zap.Int("remaining", eff.Remaining),
				zap.Int("stacks", eff.Stacks),
			)
		}
	}
}

// completeCast fires a finished cast outside of any actor turn.
func (e *Encounter) completeCast(c *Combatant) TurnReport {
	e.beginReport(c.ID)
	pc := c.cancelCast()
	e.setState(StateResolving)
	if !c.Effects.CanAct() {
		e.report.CastCanceled = append(e.report.CastCanceled, pc.Skill.ID)
		e.sink.CastCanceled(c.ID, pc.Skill.ID)
	} else {
		e.report.CastCompleted = pc.Skill.ID
		e.logger.Debug("cast completed", zap.String("actor", c.ID), zap.String("skill", pc.Skill.ID))
		e.applySkill(c, pc.Skill, pc.Targets, pc)
	}
	e.setState(StatePostTurnCleanup)
	e.sweep()
	e.checkOver()
	return e.endReport()
}

// postTurn runs end-of-turn bookkeeping for actor and the encounter.
func (e *Encounter) postTurn(actor *Combatant) {
	e.setState(StatePostTurnCleanup)
	if actor.Active() {
		for _, ex := range actor.Effects.EndOfTurn() {
			e.logger.Debug("effect expired", zap.String("actor", actor.ID), zap.String("effect", ex.Def.ID))
		}
	}
	for _, c := range e.combatants {
		if !c.Active() || !c.Brave.Broken || e.brokeNow[c.ID] {
			continue
		}
		if c != actor {
			c.Brave.BreakTurns--
			if c.Brave.BreakTurns > 0 {
				continue
			}
		}
		c.Brave.ClearBreak(e.bal.BreakRecoveryFraction)
		e.logger.Debug("break cleared", zap.String("combatant", c.ID), zap.Int("brave", c.Brave.Current))
	}
	e.sweep()
	e.checkOver()
}

// sweep removes dead combatants and cancels casts that can no longer fire.
func (e *Encounter) sweep() {
	for _, c := range e.combatants {
		if c.Removed {
			continue
		}
		if c.IsDead() {
			if e.revive != nil {
				if hp := e.revive(c); hp > 0 {
					c.CurrentHP = min(hp, c.MaxHP)
					e.logger.Debug("combatant revived", zap.String("combatant", c.ID), zap.Int("hp", c.CurrentHP))
					continue
				}
			}
			e.cancel(c)
			c.remove()
			e.logger.Debug("combatant defeated", zap.String("combatant", c.ID))
			continue
		}
		if c.Casting() && !c.Effects.CanAct() {
			e.cancel(c)
		}
	}
}

func (e *Encounter) cancel(c *Combatant) {
	pc := c.cancelCast()
	if pc == nil {
		return
	}
	if e.report != nil {
		e.report.CastCanceled = append(e.report.CastCanceled, pc.Skill.ID)
	}
	e.logger.Debug("cast canceled", zap.String("actor", c.ID), zap.String("skill", pc.Skill.ID))
	e.sink.CastCanceled(c.ID, pc.Skill.ID)
}

// checkOver ends the encounter when a side has no active combatants or the
// turn limit is reached.
func (e *Encounter) checkOver() {
	alive := make(map[Alignment]bool)
	var survivors []string
	for _, c := range e.combatants {
		if c.Active() {
			alive[c.Alignment] = true
			survivors = append(survivors, c.ID)
		}
	}
	out := Outcome{Turns: e.turn, Ticks: e.ticks, Survivors: survivors}
	switch {
	case alive[AlignPlayer] && alive[AlignEnemy]:
		if e.turn < e.bal.MaxTurns {
			return
		}
		e.logger.Info("turn limit reached", zap.Int("turns", e.turn))
	case alive[AlignPlayer]:
		out.Winner = AlignPlayer
	case alive[AlignEnemy]:
		out.Winner = AlignEnemy
	}
	e.outcome = &out
	e.setState(StateEncounterOver)
	e.sink.EncounterOver(out)
}

func (e *Encounter) setState(s State) {
	if e.state == s {
		return
	}
	e.logger.Debug("state transition", zap.Stringer("from", e.state), zap.Stringer("to", s))
	e.state = s
}

func (e *Encounter) beginReport(actorID string) {
	e.report = &TurnReport{Turn: e.turn, ActorID: actorID}
	e.brokeNow = make(map[string]bool)
}

func (e *Encounter) endReport() TurnReport {
	rep := *e.report
	e.report = nil
	return rep
}

func (e *Encounter) emit(ev DamageEvent) {
	ev.Turn = e.turn
	if ev.Break && e.brokeNow != nil {
		e.brokeNow[ev.TargetID] = true
	}
	if e.report != nil {
		e.report.Events = append(e.report.Events, ev)
	}
	e.sink.Damage(ev)
}

package fxlang

// Host is everything a running fxlang program needs from the battle
// engine. internal/battle.Engine implements it via the adapter in
// internal/battle/fxhost.go; this package never imports internal/battle,
// keeping the dependency direction the same as the original's
// "EvaluationContext wraps a battle Context" boundary.
type Host interface {
	Damage(target int, amount int) error
	Heal(target int, amount int) error
	SetStatus(target int, status string) (bool, error)
	CureStatus(target int) error
	AddVolatile(target int, id string) (bool, error)
	RemoveVolatile(target int, id string) (bool, error)
	HasVolatile(target int, id string) bool
	SetBoost(target int, stat string, stages int) (int, error)
	GetBoost(target int, stat string) int
	RunEvent(event string, target int, relayInt int) int
	RunEventOnMove(event string, user int) error
	Random(lo, hi int) int
	Chance(numerator, denominator int) bool
	Log(title string, fields map[string]string)
	CalculateDamage(user, target int, basePower int) (int, error)
	CalculateConfusionDamage(user int) (int, error)
	MonInPosition(side, position int) (int, bool)
	HasAbility(mon int, abilityID string) bool
	HasType(mon int, typeName string) bool
	IsAlly(a, b int) bool
	MoveHasFlag(moveID string, flag string) bool
}

// Context is the evaluation state threaded through one program run (spec
// §9 "bounded recursion depth" supplement: Depth is incremented on every
// RunEvent/RunEventOnMove call and RunFunction refuses to recurse past
// maxDepth).
type Context struct {
	Host   Host
	Target int
	Source int
	Depth  int
}

const maxDepth = 30

func (c *Context) child() *Context {
	return &Context{Host: c.Host, Target: c.Target, Source: c.Source, Depth: c.Depth + 1}
}

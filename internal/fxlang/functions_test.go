package fxlang

import "testing"

type fakeHost struct {
	damaged  map[int]int
	statuses map[int]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{damaged: map[int]int{}, statuses: map[int]string{}}
}

func (h *fakeHost) Damage(target, amount int) error { h.damaged[target] += amount; return nil }
func (h *fakeHost) Heal(target, amount int) error    { h.damaged[target] -= amount; return nil }
func (h *fakeHost) SetStatus(target int, status string) (bool, error) {
	if h.statuses[target] != "" {
		return false, nil
	}
	h.statuses[target] = status
	return true, nil
}
func (h *fakeHost) CureStatus(target int) error { delete(h.statuses, target); return nil }
func (h *fakeHost) AddVolatile(target int, id string) (bool, error)    { return true, nil }
func (h *fakeHost) RemoveVolatile(target int, id string) (bool, error) { return true, nil }
func (h *fakeHost) HasVolatile(target int, id string) bool             { return false }
func (h *fakeHost) SetBoost(target int, stat string, stages int) (int, error) { return stages, nil }
func (h *fakeHost) GetBoost(target int, stat string) int                      { return 0 }
func (h *fakeHost) RunEvent(event string, target int, relay int) int          { return relay }
func (h *fakeHost) RunEventOnMove(event string, user int) error               { return nil }
func (h *fakeHost) Random(lo, hi int) int                                     { return lo }
func (h *fakeHost) Chance(num, den int) bool                                  { return true }
func (h *fakeHost) Log(title string, fields map[string]string)               {}
func (h *fakeHost) CalculateDamage(user, target, power int) (int, error)      { return power, nil }
func (h *fakeHost) CalculateConfusionDamage(user int) (int, error)            { return 10, nil }
func (h *fakeHost) MonInPosition(side, pos int) (int, bool)                   { return 0, true }
func (h *fakeHost) HasAbility(mon int, id string) bool                       { return id == "static" }
func (h *fakeHost) HasType(mon int, t string) bool                           { return t == "electric" }
func (h *fakeHost) IsAlly(a, b int) bool                                     { return a == b }
func (h *fakeHost) MoveHasFlag(moveID, flag string) bool                    { return flag == "contact" }

func TestRunFunctionDamageAndHeal(t *testing.T) {
	host := newFakeHost()
	ctx := &Context{Host: host}

	if _, err := RunFunction(ctx, "damage", []Value{MonValue(1), IntValue(30)}); err != nil {
		t.Fatalf("damage: %v", err)
	}
	if host.damaged[1] != 30 {
		t.Fatalf("expected 30 damage, got %d", host.damaged[1])
	}

	if _, err := RunFunction(ctx, "heal", []Value{MonValue(1), IntValue(10)}); err != nil {
		t.Fatalf("heal: %v", err)
	}
	if host.damaged[1] != 20 {
		t.Fatalf("expected net 20 damage after heal, got %d", host.damaged[1])
	}
}

func TestRunFunctionSetStatusRejectsSecond(t *testing.T) {
	host := newFakeHost()
	ctx := &Context{Host: host}

	ok, err := RunFunction(ctx, "set_status", []Value{MonValue(1), StringValue("par")})
	if err != nil || ok.Bool != true {
		t.Fatalf("expected first set_status to succeed, got %+v err=%v", ok, err)
	}

	ok, err = RunFunction(ctx, "set_status", []Value{MonValue(1), StringValue("brn")})
	if err != nil || ok.Bool != false {
		t.Fatalf("expected second set_status to fail, got %+v err=%v", ok, err)
	}
}

func TestRunFunctionRecursionLimit(t *testing.T) {
	host := newFakeHost()
	ctx := &Context{Host: host, Depth: maxDepth + 1}

	_, err := RunFunction(ctx, "damage", []Value{MonValue(1), IntValue(1)})
	if err != errRecursionLimit {
		t.Fatalf("expected recursion limit error, got %v", err)
	}
}

func TestRunFunctionUnknown(t *testing.T) {
	ctx := &Context{Host: newFakeHost()}
	if _, err := RunFunction(ctx, "not_a_real_function", nil); err == nil {
		t.Fatal("expected error for unknown function")
	}
}

package logsplit

import "testing"

func TestEmitFansToAllLogs(t *testing.T) {
	sp := New(2)
	sp.Emit("turn|turn:1")

	if got := sp.FullLog(nil); len(got) != 1 || got[0] != "turn|turn:1" {
		t.Fatalf("public log = %v", got)
	}
	s0 := 0
	if got := sp.FullLog(&s0); len(got) != 1 || got[0] != "turn|turn:1" {
		t.Fatalf("side 0 log = %v", got)
	}
}

func TestEmitSplitAudiences(t *testing.T) {
	sp := New(2)
	sp.EmitSplit(0, "damage|health:12/19", "damage|health:67/100")

	s0 := 0
	s1 := 1
	side0 := sp.FullLog(&s0)
	side1 := sp.FullLog(&s1)
	pub := sp.FullLog(nil)

	if side0[1] != "damage|health:12/19" {
		t.Fatalf("side 0 should see the private variant, got %v", side0)
	}
	if side1[1] != "damage|health:67/100" || pub[1] != "damage|health:67/100" {
		t.Fatalf("side 1 and public should see the public variant, got side1=%v pub=%v", side1, pub)
	}
	if side0[0] != "split|side:0" || side1[0] != "split|side:0" || pub[0] != "split|side:0" {
		t.Fatalf("every audience should see the split marker first")
	}
}

func TestSubscriptionCatchUp(t *testing.T) {
	sp := New(1)
	sp.Emit("turn|turn:1")

	side0 := 0
	hist, ch, cancel := sp.Subscribe(&side0)
	defer cancel()

	sp.Emit("turn|turn:2")

	got := append([]string{}, hist...)
	got = append(got, <-ch)

	full := sp.FullLog(&side0)
	if len(got) != len(full) {
		t.Fatalf("catch-up mismatch: got %v want %v", got, full)
	}
	for i := range got {
		if got[i] != full[i] {
			t.Fatalf("catch-up mismatch at %d: got %v want %v", i, got, full)
		}
	}
}

func TestSlowSubscriberGetsGapMarker(t *testing.T) {
	sp := New(1)
	side0 := 0
	_, ch, cancel := sp.Subscribe(&side0)
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		sp.Emit("x")
	}

	sawGap := false
	for i := 0; i < subscriberBuffer; i++ {
		select {
		case v := <-ch:
			if len(v) >= 3 && v[:3] == "gap" {
				sawGap = true
			}
		default:
		}
	}
	if !sawGap {
		t.Fatal("expected a gap marker after overflowing the subscriber buffer")
	}
}

package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_NewTimer(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(10 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
		// fired as expected
	case <-time.After(time.Second):
		t.Error("timer did not fire")
	}
}

func TestRealClock_NewTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
		// ticked as expected
	case <-time.After(time.Second):
		t.Error("ticker did not tick")
	}
}

func TestMockClock_Now(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(fixed)

	if !clock.Now().Equal(fixed) {
		t.Errorf("got %v, want %v", clock.Now(), fixed)
	}
}

func TestMockClock_Set(t *testing.T) {
	clock := NewMockClock(time.Time{})
	target := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock.Set(target)

	if !clock.Now().Equal(target) {
		t.Errorf("got %v, want %v", clock.Now(), target)
	}
}

func TestMockClock_AdvanceFiresTimer(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	timer := clock.NewTimer(30 * time.Second)

	clock.Advance(29 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-timer.C():
		want := time.Date(2026, 3, 1, 9, 0, 30, 0, time.UTC)
		if !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestMockClock_TimerFiresOnce(t *testing.T) {
	clock := NewMockClock(time.Time{})
	timer := clock.NewTimer(time.Second)

	clock.Advance(time.Second)
	<-timer.C()

	clock.Advance(time.Hour)
	select {
	case <-timer.C():
		t.Error("single-shot timer fired twice")
	default:
	}
}

func TestMockClock_StoppedTimerDoesNotFire(t *testing.T) {
	clock := NewMockClock(time.Time{})
	timer := clock.NewTimer(time.Second)

	if !timer.Stop() {
		t.Error("Stop() on a pending timer should report true")
	}
	if timer.Stop() {
		t.Error("second Stop() should report false")
	}

	clock.Advance(time.Minute)
	select {
	case <-timer.C():
		t.Error("stopped timer fired")
	default:
	}
}

func TestMockClock_TickerRepeats(t *testing.T) {
	clock := NewMockClock(time.Time{})
	ticker := clock.NewTicker(time.Second)

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		select {
		case <-ticker.C():
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	ticker.Stop()
	clock.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Error("stopped ticker ticked")
	default:
	}
}

func TestMockClock_SleepRecords(t *testing.T) {
	clock := NewMockClock(time.Time{})
	clock.Sleep(30 * time.Millisecond)
	clock.Sleep(70 * time.Millisecond)

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 {
		t.Fatalf("got %d recorded sleeps, want 2", len(sleeps))
	}
	if sleeps[0] != 30*time.Millisecond || sleeps[1] != 70*time.Millisecond {
		t.Errorf("got %v, want [30ms 70ms]", sleeps)
	}
}

package queue

import (
	"testing"
	"time"
)

func TestExponentialBackoffDoubles(t *testing.T) {
	p := ExponentialBackoff{Base: time.Second, Max: time.Hour}
	if got := p.Delay(1); got != 2*time.Second {
		t.Fatalf("Delay(1) = %v, want 2s", got)
	}
	if got := p.Delay(2); got != 4*time.Second {
		t.Fatalf("Delay(2) = %v, want 4s", got)
	}
	if got := p.Delay(5); got != 32*time.Second {
		t.Fatalf("Delay(5) = %v, want 32s", got)
	}
}

func TestExponentialBackoffCaps(t *testing.T) {
	p := ExponentialBackoff{Base: time.Second, Max: 10 * time.Second}
	if got := p.Delay(10); got != 10*time.Second {
		t.Fatalf("Delay(10) = %v, want cap 10s", got)
	}
}

func TestExponentialBackoffNoOverflow(t *testing.T) {
	p := ExponentialBackoff{Base: time.Second, Max: time.Hour}
	for _, n := range []int{60, 62, 63, 64, 100, 1 << 20} {
		got := p.Delay(n)
		if got <= 0 || got > time.Hour {
			t.Fatalf("Delay(%d) = %v, want within (0, 1h]", n, got)
		}
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	p := ExponentialBackoff{Base: time.Second, Max: time.Hour, Jitter: true}
	for i := 0; i < 100; i++ {
		got := p.Delay(3) // nominal 8s
		lo, hi := 6800*time.Millisecond, 9200*time.Millisecond
		if got < lo || got > hi {
			t.Fatalf("jittered Delay(3) = %v, want within [%v, %v]", got, lo, hi)
		}
	}
}

func TestFixedBackoff(t *testing.T) {
	p := FixedBackoff{Interval: 3 * time.Second}
	for _, n := range []int{1, 2, 50} {
		if got := p.Delay(n); got != 3*time.Second {
			t.Fatalf("Delay(%d) = %v, want 3s", n, got)
		}
	}
	if got := (FixedBackoff{}).Delay(1); got != time.Second {
		t.Fatalf("zero-valued FixedBackoff = %v, want 1s default", got)
	}
}

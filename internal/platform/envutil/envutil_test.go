package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("TRAILMARK_TEST_INT", "nope")
	if got := Int("TRAILMARK_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("TRAILMARK_TEST_INT", "12")
	if got := Int("TRAILMARK_TEST_INT", 7, nil); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestDurationAcceptsSecondsAndStrings(t *testing.T) {
	t.Setenv("TRAILMARK_TEST_DUR", "30")
	if got := Duration("TRAILMARK_TEST_DUR", time.Minute, nil); got != 30*time.Second {
		t.Fatalf("Duration secs: got=%s", got)
	}
	t.Setenv("TRAILMARK_TEST_DUR", "2h")
	if got := Duration("TRAILMARK_TEST_DUR", time.Minute, nil); got != 2*time.Hour {
		t.Fatalf("Duration string: got=%s", got)
	}
}

func TestBoolAndStringDefaults(t *testing.T) {
	if got := Bool("TRAILMARK_TEST_UNSET_BOOL", true); !got {
		t.Fatalf("Bool default: want=true")
	}
	t.Setenv("TRAILMARK_TEST_BOOL", "off")
	if got := Bool("TRAILMARK_TEST_BOOL", true); got {
		t.Fatalf("Bool off: want=false")
	}
	if got := String("TRAILMARK_TEST_UNSET_STR", "x", nil); got != "x" {
		t.Fatalf("String default: got=%q", got)
	}
}

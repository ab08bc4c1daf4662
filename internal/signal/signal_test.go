package signal

import (
	"math"
	"testing"
)

func TestAlpha(t *testing.T) {
	if got := Alpha(5); math.Abs(got-1.0/6) > 1e-15 {
		t.Fatalf("expected 1/6, got %f", got)
	}
	if got := Alpha(20); math.Abs(got-1.0/21) > 1e-15 {
		t.Fatalf("expected 1/21, got %f", got)
	}
	if got := Alpha(0); got != 1 {
		t.Fatalf("expected alpha 1 for zero window, got %f", got)
	}
}

func TestSeedIsFlat(t *testing.T) {
	p := Seed(10)
	if p.Fast != 10 || p.Slow != 10 {
		t.Fatalf("unexpected seed %+v", p)
	}
	if Classify(p) != Flat {
		t.Fatalf("expected flat trend on cold start")
	}
}

func TestUpdateMatchesReferenceTick(t *testing.T) {
	p := Seed(10).Update(9.5, Alpha(5), Alpha(20))
	if math.Abs(p.Fast-9.916666666666666) > 1e-9 {
		t.Fatalf("unexpected fast ema %.12f", p.Fast)
	}
	if math.Abs(p.Slow-9.976190476190476) > 1e-9 {
		t.Fatalf("unexpected slow ema %.12f", p.Slow)
	}
	if Classify(p) != Bearish {
		t.Fatalf("expected bearish, got %s", Classify(p))
	}
}

func TestClassify(t *testing.T) {
	cases := map[EMAPair]Trend{
		{Fast: 2, Slow: 1}: Bullish,
		{Fast: 1, Slow: 2}: Bearish,
		{Fast: 1, Slow: 1}: Flat,
	}
	for pair, want := range cases {
		if got := Classify(pair); got != want {
			t.Fatalf("Classify(%+v) = %s, want %s", pair, got, want)
		}
	}
}

func TestConstantPriceConverges(t *testing.T) {
	const target = 100.0
	aFast, aSlow := Alpha(5), Alpha(20)
	p := EMAPair{Fast: 90, Slow: 80}

	prevFast := math.Abs(target - p.Fast)
	prevSlow := math.Abs(target - p.Slow)
	prevGap := math.Abs(p.Gap())
	for i := 0; i < 200; i++ {
		next := p.Update(target, aFast, aSlow)

		// each distance shrinks by exactly its own decay factor
		if want := (1 - aFast) * (target - p.Fast); math.Abs((target-next.Fast)-want) > 1e-9 {
			t.Fatalf("tick %d: fast distance %.12f, want %.12f", i, target-next.Fast, want)
		}
		if want := (1 - aSlow) * (target - p.Slow); math.Abs((target-next.Slow)-want) > 1e-9 {
			t.Fatalf("tick %d: slow distance %.12f, want %.12f", i, target-next.Slow, want)
		}

		dFast, dSlow := math.Abs(target-next.Fast), math.Abs(target-next.Slow)
		if dFast > prevFast+1e-12 || dSlow > prevSlow+1e-12 {
			t.Fatalf("tick %d: averages moved away from price", i)
		}
		if next.Fast > target+1e-9 || next.Slow > target+1e-9 {
			t.Fatalf("tick %d: overshoot %+v", i, next)
		}
		p, prevFast, prevSlow = next, dFast, dSlow
	}
	if gap := math.Abs(p.Gap()); gap > prevGap {
		t.Fatalf("gap grew from %.6f to %.6f", prevGap, gap)
	}
	if math.Abs(target-p.Fast) > 1e-9 {
		t.Fatalf("fast ema did not converge: %.12f", p.Fast)
	}
}

func TestTrendString(t *testing.T) {
	if Skipped.String() != "skipped" || Flat.String() != "flat" {
		t.Fatalf("unexpected trend names")
	}
}

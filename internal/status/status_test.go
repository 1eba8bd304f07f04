package status

import "testing"

func TestBoard_LEDAndNoises(t *testing.T) {
	var b Board

	snap := b.Snapshot()
	if snap.LED != LEDUpdate {
		t.Fatalf("initial LED = %v, want update", snap.LED)
	}
	if snap.Seq != 0 || len(snap.Events) != 0 {
		t.Fatalf("initial snapshot = %#v, want empty", snap)
	}

	b.Play(NoiseOnline)
	b.SetLED(LEDHeartbeat)

	snap = b.Snapshot()
	if snap.LED != LEDHeartbeat {
		t.Fatalf("LED = %v, want heartbeat", snap.LED)
	}
	if snap.Seq != 1 || len(snap.Events) != 1 || snap.Events[0].Noise != NoiseOnline {
		t.Fatalf("snapshot after play = %#v, want one online event at seq 1", snap)
	}
	if snap.Events[0].At.IsZero() {
		t.Fatal("event time not recorded")
	}
}

func TestBoard_EventsBounded(t *testing.T) {
	var b Board

	for i := 0; i < maxEvents+5; i++ {
		b.Play(NoiseTick)
	}
	b.Play(NoiseFail)

	snap := b.Snapshot()
	if len(snap.Events) != maxEvents {
		t.Fatalf("events kept = %d, want %d", len(snap.Events), maxEvents)
	}
	if snap.Events[len(snap.Events)-1].Noise != NoiseFail {
		t.Fatalf("newest event = %v, want fail", snap.Events[len(snap.Events)-1].Noise)
	}
	if snap.Seq != uint64(maxEvents+6) {
		t.Fatalf("Seq = %d, want %d", snap.Seq, maxEvents+6)
	}
}

func TestBoard_SnapshotClone(t *testing.T) {
	var b Board

	b.Play(NoiseAbort)
	snap := b.Snapshot()
	snap.Events[0].Noise = NoiseTick

	if got := b.Snapshot().Events[0].Noise; got != NoiseAbort {
		t.Fatalf("stored event mutated through snapshot; got %v want abort", got)
	}
}

func TestStrings(t *testing.T) {
	ledWant := map[LED]string{LEDUpdate: "update", LEDHeartbeat: "heartbeat", LEDFail: "fail"}
	for led, want := range ledWant {
		if led.String() != want {
			t.Fatalf("LED(%d).String() = %q, want %q", led, led.String(), want)
		}
	}
	noiseWant := map[Noise]string{NoiseAbort: "abort", NoiseOnline: "online", NoiseFail: "fail", NoiseTick: "tick"}
	for noise, want := range noiseWant {
		if noise.String() != want {
			t.Fatalf("Noise(%d).String() = %q, want %q", noise, noise.String(), want)
		}
	}
}

package pattern

import "testing"

func ones(idx ...int) []int {
	out := make([]int, Steps)
	for _, i := range idx {
		out[i] = 1
	}
	return out
}

func TestMergeKeepsMissingTrack(t *testing.T) {
	cur := Default()
	cur.Tracks[Synth].Steps[3] = true
	g := Generated{
		BPM: 128,
		Tracks: []GeneratedTrack{
			{Type: "KICK", Steps: ones(0, 8)},
			{Type: "SNARE", Steps: ones(4, 12)},
			{Type: "HIHAT", Steps: ones(2, 6, 10, 14)},
			{Type: "CLAP", Steps: ones(12)},
			{Type: "BASS", Steps: ones(0, 3, 6)},
		},
	}
	got, bpm := Merge(cur, g)
	if bpm != 128 {
		t.Errorf("bpm = %d, want 128", bpm)
	}
	if got.Tracks[Synth] != cur.Tracks[Synth] {
		t.Error("synth track should be retained unchanged")
	}
	if !got.Tracks[Kick].Steps[8] || got.Tracks[Kick].Steps[4] {
		t.Error("kick track should be replaced")
	}
	if !got.Tracks[Bass].Steps[3] {
		t.Error("bass track should be replaced")
	}
}

func TestMergeClampsBPM(t *testing.T) {
	_, bpm := Merge(New(), Generated{BPM: 250})
	if bpm != 180 {
		t.Fatalf("bpm = %d, want 180", bpm)
	}
	_, bpm = Merge(New(), Generated{BPM: 12})
	if bpm != 60 {
		t.Fatalf("bpm = %d, want 60", bpm)
	}
}

func TestMergeDropsMalformedTracks(t *testing.T) {
	cur := Default()
	hats := ones(1)
	hats[15] = 7
	g := Generated{
		BPM: 100,
		Tracks: []GeneratedTrack{
			{Type: "KICK", Steps: []int{1, 0, 1}},
			{Type: "hihat", Steps: hats},
			{Type: "COWBELL", Steps: ones(0)},
			{Type: "snare", Steps: ones(4)},
			{Type: "SNARE", Steps: ones(5)},
		},
	}
	got, _ := Merge(cur, g)
	if got.Tracks[Kick] != cur.Tracks[Kick] {
		t.Error("short kick track should be dropped")
	}
	if got.Tracks[HiHat] != cur.Tracks[HiHat] {
		t.Error("non-binary hihat track should be dropped")
	}
	if !got.Tracks[Snare].Steps[4] || got.Tracks[Snare].Steps[5] {
		t.Error("first snare track should win")
	}
}

func TestMergePreservesMuteAndVolume(t *testing.T) {
	cur := Default()
	cur.SetMute(Clap, true)
	cur.SetVolume(Clap, 0.25)
	got, _ := Merge(cur, Generated{BPM: 90, Tracks: []GeneratedTrack{{Type: "CLAP", Steps: ones(0)}}})
	if !got.Tracks[Clap].Muted || got.Tracks[Clap].Volume != 0.25 {
		t.Error("merge must only replace steps")
	}
}

package markov

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestTrain_Scenario(t *testing.T) {
	model := trainString(t, "ann\nanna\nanne\n", Parameters{Order: 2, Backoff: true})

	a, ok := model.TokenID("a")
	if !ok {
		t.Fatal("token 'a' missing from vocabulary")
	}

	for _, ctx := range [][]TokenID{{StartTokenID}, {StartTokenID, StartTokenID}} {
		d, ok := model.Lookup(ctx...)
		if !ok {
			t.Fatalf("no distribution for context %v", ctx)
		}
		if succ := d.Successors(); len(succ) != 1 || succ[0] != a || d.Count(a) != 3 {
			t.Errorf("context %v: got successors %v with count(a) %d, want {a: 3}", ctx, succ, d.Count(a))
		}
		if d.Total() != 3 {
			t.Errorf("context %v: Total() = %v, want 3", ctx, d.Total())
		}
	}

	n, _ := model.TokenID("n")
	d, ok := model.Lookup(n, n)
	if !ok {
		t.Fatal("no distribution for context (n, n)")
	}
	if got := d.Weight(EndTokenID); got != 1 {
		t.Errorf("Weight(END) after 'nn' = %v, want 1", got)
	}
	if got := d.Weight(a); got != 1 {
		t.Errorf("Weight(a) after 'nn' = %v, want 1", got)
	}
	if got := d.Weight(StartTokenID); got != 0 {
		t.Errorf("Weight(START) = %v, want 0", got)
	}

	stats := model.Stats()
	if stats.VocabularySize != 3 {
		t.Errorf("VocabularySize = %d, want 3", stats.VocabularySize)
	}
	if stats.Contexts[0] != 1 {
		t.Errorf("level 0 has %d contexts, want 1", stats.Contexts[0])
	}
	if stats.StartingTokens != 1 {
		t.Errorf("StartingTokens = %d, want 1", stats.StartingTokens)
	}
	// 3 + 4 + 4 letters plus one END per entry.
	if stats.Observations != 14 {
		t.Errorf("Observations = %d, want 14", stats.Observations)
	}
}

func TestTrain_Flat(t *testing.T) {
	model := trainString(t, namesCorpus, Parameters{Order: 3})
	for k := 0; k < 3; k++ {
		if model.Table(k) != nil {
			t.Errorf("level %d built without backoff", k)
		}
	}
	if len(model.Table(3)) == 0 {
		t.Error("order table is empty")
	}
	if model.smoothing != nil {
		t.Error("smoothing distribution built with zero prior")
	}

	smoothed := trainString(t, namesCorpus, Parameters{Order: 3, Prior: 0.5})
	if smoothed.smoothing == nil {
		t.Fatal("no smoothing distribution for flat model with a prior")
	}
	if want := 0.5 * float64(smoothed.VocabularySize()-1); smoothed.smoothing.Total() != want {
		t.Errorf("smoothing Total() = %v, want %v", smoothed.smoothing.Total(), want)
	}
}

func TestTrain_Deterministic(t *testing.T) {
	params := []Parameters{
		{Order: 1},
		{Order: 2, Backoff: true},
		{Order: 3, Prior: 0.01, Backoff: true},
		{Order: 2, Prior: 1, Granularity: Word},
	}
	for _, p := range params {
		first := trainString(t, namesCorpus, p)
		second := trainString(t, namesCorpus, p)
		if !first.Equal(second) {
			t.Errorf("%+v: models differ", p)
		}

		var a, b bytes.Buffer
		fp := ComputeFingerprint([]byte(namesCorpus), p, DefaultDelimiter)
		if err := EncodeEntry(&a, fp, first); err != nil {
			t.Fatal(err)
		}
		if err := EncodeEntry(&b, fp, second); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Bytes(), b.Bytes()) {
			t.Errorf("%+v: encodings differ", p)
		}
	}
}

func TestTrain_Weights(t *testing.T) {
	params := []Parameters{
		{Order: 1},
		{Order: 2, Backoff: true},
		{Order: 4, Prior: 0.25, Backoff: true},
		{Order: 2, Prior: 2},
	}
	for _, p := range params {
		model := trainString(t, namesCorpus, p)
		for k := 0; k <= p.Order; k++ {
			for c, d := range model.Table(k) {
				if !(d.Total() > 0) {
					t.Errorf("%+v level %d context %v: Total() = %v", p, k, c[:k], d.Total())
				}
				for id := 0; id < model.VocabularySize(); id++ {
					if w := d.Weight(TokenID(id)); w < 0 || math.IsNaN(w) {
						t.Errorf("%+v: Weight(%d) = %v", p, id, w)
					}
				}
			}
		}
	}
}

func TestTrain_LongEntry(t *testing.T) {
	// One entry far longer than any word, e.g. a file read with the wrong delimiter.
	content := strings.Repeat("w ", 4999) + "tail\n"
	model := trainString(t, content, Parameters{Order: 1, Granularity: Word})

	w, ok := model.TokenID("w")
	if !ok {
		t.Fatal("token 'w' missing from vocabulary")
	}
	tail, ok := model.TokenID("tail")
	if !ok {
		t.Fatal("token 'tail' at the end of the entry is missing from vocabulary")
	}

	d, ok := model.Lookup(w)
	if !ok {
		t.Fatal("no distribution for context [w]")
	}
	if got := d.Count(w); got != 4998 {
		t.Errorf("count(w | w) = %d, want 4998", got)
	}
	if got := d.Count(tail); got != 1 {
		t.Errorf("count(tail | w) = %d, want 1", got)
	}
	if got := d.Weight(EndTokenID); got != 0 {
		t.Errorf("weight(END | w) = %v, want 0", got)
	}

	d, ok = model.Lookup(tail)
	if !ok || d.Count(EndTokenID) != 1 {
		t.Errorf("entry should end after 'tail'")
	}
	if stats := model.Stats(); stats.Observations != 5001 {
		t.Errorf("Observations = %d, want 5001", stats.Observations)
	}
}

func TestTrain_Errors(t *testing.T) {
	entries := [][]string{{"a", "b"}}
	testCases := []struct {
		name    string
		entries [][]string
		params  Parameters
		want    error
	}{
		{name: "Order zero", entries: entries, params: Parameters{Order: 0}, want: ErrInvalidParameters},
		{name: "Order too large", entries: entries, params: Parameters{Order: MaxOrder + 1}, want: ErrInvalidParameters},
		{name: "Negative prior", entries: entries, params: Parameters{Order: 1, Prior: -1}, want: ErrInvalidParameters},
		{name: "NaN prior", entries: entries, params: Parameters{Order: 1, Prior: math.NaN()}, want: ErrInvalidParameters},
		{name: "Unknown granularity", entries: entries, params: Parameters{Order: 1, Granularity: "syllable"}, want: ErrInvalidParameters},
		{name: "No entries", entries: nil, params: Parameters{Order: 1}, want: ErrFormat},
		{name: "No tokens", entries: [][]string{{}}, params: Parameters{Order: 1}, want: ErrFormat},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Train(tc.entries, tc.params); !errors.Is(err, tc.want) {
				t.Errorf("Train() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTrain_SentinelText(t *testing.T) {
	model := trainString(t, "<START> <END>\n", Parameters{Order: 1, Granularity: Word})
	id, ok := model.TokenID(StartTokenText)
	if !ok || id == StartTokenID || id == EndTokenID {
		t.Errorf("TokenID(%q) = %d, %v; want an ordinary token", StartTokenText, id, ok)
	}
}

func TestModel_Export(t *testing.T) {
	model := trainString(t, "ann\nanna\nanne\n", Parameters{Order: 2, Backoff: true})

	var buf bytes.Buffer
	if err := model.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var exported ExportedModel
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if exported.Order != 2 || !exported.Backoff || exported.Granularity != Character {
		t.Errorf("unexpected header: %+v", exported)
	}
	if len(exported.Tables) != 3 {
		t.Fatalf("got %d tables, want 3", len(exported.Tables))
	}
	if !strings.Contains(buf.String(), `"token": "a"`) {
		t.Error("export does not mention token 'a'")
	}

	var again bytes.Buffer
	if err := model.Export(&again); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), again.Bytes()) {
		t.Error("repeated exports differ")
	}
}

func BenchmarkTrain(b *testing.B) {
	corpus := createBenchmarkCorpus()
	entries, err := ParseCorpus(strings.NewReader(corpus), DefaultDelimiter, CharacterTokenizer{})
	if err != nil {
		b.Fatal(err)
	}

	for _, p := range []Parameters{{Order: 3}, {Order: 3, Backoff: true}} {
		name := "Flat"
		if p.Backoff {
			name = "Backoff"
		}
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(corpus)))
			for i := 0; i < b.N; i++ {
				if _, err := Train(entries, p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

package nlp

import (
	"testing"

	"github.com/seenimoa/stonksfeed/pkg/models"
)

func TestAnalyzeSentimentBullish(t *testing.T) {
	score, label := AnalyzeSentiment("Stock soars to record highs")
	if label != models.SentimentBullish {
		t.Fatalf("got label %q (score %.3f), want bullish", label, score)
	}
	if score < bullishThreshold || score > 1.0 {
		t.Fatalf("score %.3f outside expected bullish range", score)
	}
}

func TestAnalyzeSentimentBearish(t *testing.T) {
	score, label := AnalyzeSentiment("Shares plunge on weak earnings")
	if label != models.SentimentBearish {
		t.Fatalf("got label %q (score %.3f), want bearish", label, score)
	}
	if score > bearishThreshold || score < -1.0 {
		t.Fatalf("score %.3f outside expected bearish range", score)
	}
}

func TestAnalyzeSentimentNeutral(t *testing.T) {
	score, label := AnalyzeSentiment("Company reports quarterly results")
	if label != models.SentimentNeutral {
		t.Fatalf("got label %q (score %.3f), want neutral", label, score)
	}
	if score != 0 {
		t.Fatalf("got score %.3f, want 0 with no lexicon hits", score)
	}
}

func TestAnalyzeSentimentNegationFlips(t *testing.T) {
	positive, _ := AnalyzeSentiment("Profits surge this quarter")
	negated, _ := AnalyzeSentiment("Profits did not surge this quarter")
	if positive <= 0 {
		t.Fatalf("baseline score %.3f, want positive", positive)
	}
	if negated >= positive {
		t.Fatalf("negated score %.3f not below baseline %.3f", negated, positive)
	}
}

func TestAnalyzeSentimentIntensifiers(t *testing.T) {
	plain, _ := AnalyzeSentiment("Shares crash on fraud charges")
	shouted, _ := AnalyzeSentiment("Shares CRASH on fraud charges!")
	if shouted >= plain {
		t.Fatalf("intensified score %.3f not more negative than %.3f", shouted, plain)
	}
}

func TestScoreBounds(t *testing.T) {
	// Pile on terms: the normalization must keep the score inside [-1, 1].
	score, _ := AnalyzeSentiment("Crash plunge slump selloff fraud scam bankruptcy recession!")
	if score < -1.0 || score > 1.0 {
		t.Fatalf("score %.3f out of bounds", score)
	}
}

func TestLabelForThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  models.SentimentLabel
	}{
		{0.05, models.SentimentBullish},
		{0.7, models.SentimentBullish},
		{-0.05, models.SentimentBearish},
		{-0.7, models.SentimentBearish},
		{0.0, models.SentimentNeutral},
		{0.049, models.SentimentNeutral},
		{-0.049, models.SentimentNeutral},
	}
	for _, tt := range tests {
		if got := LabelFor(tt.score); got != tt.want {
			t.Fatalf("LabelFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

package config

import (
	"testing"
	"time"
)

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()

	if len(sources) != 2 {
		t.Fatalf("Expected 2 default sources, got %d", len(sources))
	}

	reddit := sources[0]
	if reddit.Type != "reddit" {
		t.Errorf("Expected first source to be reddit, got %s", reddit.Type)
	}
	if reddit.Interval != time.Second {
		t.Errorf("Expected reddit interval 1s, got %s", reddit.Interval)
	}
	if reddit.Limit != 10 {
		t.Errorf("Expected reddit limit 10, got %d", reddit.Limit)
	}

	foundNetsec := false
	for _, sub := range reddit.Subreddits {
		if sub == "netsec" {
			foundNetsec = true
			break
		}
	}
	if !foundNetsec {
		t.Error("Expected 'netsec' to be in default subreddits")
	}

	if sources[1].Type != "hibp" || sources[1].Limit != 15 {
		t.Errorf("Expected hibp source capped at 15, got %+v", sources[1])
	}
}

func TestDefaultSubredditsIsCopy(t *testing.T) {
	a := DefaultSubreddits()
	a[0] = "changed"

	if DefaultSubreddits()[0] != "security" {
		t.Error("DefaultSubreddits must return a fresh slice")
	}
}

func TestDefaultAnalysis(t *testing.T) {
	cfg := DefaultAnalysis()

	if cfg.FindSimilar {
		t.Error("Similarity pass should be off by default")
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		t.Errorf("Threshold must be in (0,1], got %f", cfg.Threshold)
	}
}

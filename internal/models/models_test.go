package models

import (
	"strings"
	"testing"
)

func TestValidEmotionType(t *testing.T) {
	for _, known := range EmotionTypes {
		if !ValidEmotionType(known) {
			t.Fatalf("expected %q to be valid", known)
		}
	}
	for _, bad := range []string{"", "furious", "HAPPY", "happy "} {
		if ValidEmotionType(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestValidDescription(t *testing.T) {
	if ValidDescription("") {
		t.Fatal("empty description must be invalid")
	}
	if !ValidDescription(strings.Repeat("é", MaxDescriptionLength)) {
		t.Fatal("description at the rune cap must be valid")
	}
	if ValidDescription(strings.Repeat("a", MaxDescriptionLength+1)) {
		t.Fatal("description over the cap must be invalid")
	}
}

func TestPartnership_PartnerOf(t *testing.T) {
	p := Partnership{UserAID: "a", UserBID: "b"}
	if got := p.PartnerOf("a"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := p.PartnerOf("b"); got != "a" {
		t.Fatalf("expected a, got %q", got)
	}
	if got := p.PartnerOf("c"); got != "" {
		t.Fatalf("expected empty for non-member, got %q", got)
	}
}

package draft

import (
	"errors"
	"strings"
	"testing"
)

func TestInputValidate(t *testing.T) {
	base := Input{
		Background:    strings.Repeat("a", 50),
		TargetDetails: strings.Repeat("b", 10),
		LetterType:    LetterTypeMotivation,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("minimal valid input rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"background too short", func(in *Input) { in.Background = strings.Repeat("a", 49) }},
		{"background too long", func(in *Input) { in.Background = strings.Repeat("a", 5001) }},
		{"target too short", func(in *Input) { in.TargetDetails = strings.Repeat("b", 9) }},
		{"target too long", func(in *Input) { in.TargetDetails = strings.Repeat("b", 1001) }},
		{"unknown letter type", func(in *Input) { in.LetterType = "memo" }},
		{"empty letter type", func(in *Input) { in.LetterType = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			if err := in.Validate(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestInputValidate_CountsRunes(t *testing.T) {
	in := Input{
		Background:    strings.Repeat("ż", 50),
		TargetDetails: strings.Repeat("ż", 10),
		LetterType:    LetterTypeCover,
	}
	if err := in.Validate(); err != nil {
		t.Errorf("multibyte runes should satisfy the minimum lengths: %v", err)
	}
}

func TestIdentityPresent(t *testing.T) {
	if (Identity{}).Present() {
		t.Error("zero identity should not be present")
	}
	if !(Identity{UserID: "usr_1"}).Present() {
		t.Error("identity with user id should be present")
	}
}

package internal

import (
	"testing"

	"github.com/shge/meet-notify/pkg/meet"
)

// TestFormatParticipantVariants tests the display string for each identity
// variant.
func TestFormatParticipantVariants(t *testing.T) {
	cases := []struct {
		name        string
		participant meet.Participant
		want        string
	}{
		{
			name:        "anonymous",
			participant: meet.Participant{AnonymousUser: &meet.UserInfo{DisplayName: "Guest"}},
			want:        "Guest (Anonymous)",
		},
		{
			name:        "signed in",
			participant: meet.Participant{SignedInUser: &meet.SignedInUser{User: "users/42", DisplayName: "Alice"}},
			want:        "Alice",
		},
		{
			name:        "phone",
			participant: meet.Participant{PhoneUser: &meet.UserInfo{DisplayName: "+1 555-0100"}},
			want:        "+1 555-0100 (Phone)",
		},
		{
			name:        "none populated",
			participant: meet.Participant{Name: "conferenceRecords/1/participants/2"},
			want:        "Unknown participant",
		},
	}

	for _, tc := range cases {
		if got := FormatParticipant(&tc.participant); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

// TestFormatParticipantPriority tests that the anonymous variant wins if the
// API ever populates more than one.
func TestFormatParticipantPriority(t *testing.T) {
	participant := meet.Participant{
		AnonymousUser: &meet.UserInfo{DisplayName: "Guest"},
		SignedInUser:  &meet.SignedInUser{DisplayName: "Alice"},
	}
	if got := FormatParticipant(&participant); got != "Guest (Anonymous)" {
		t.Fatalf("expected anonymous variant to win, got %q", got)
	}
}

package internal

import (
	"fmt"

	"github.com/shge/meet-notify/pkg/meet"
)

// FormatParticipant renders a participant for display based on which
// identity variant is populated.
func FormatParticipant(p *meet.Participant) string {
	identity := p.Identity()
	switch identity.Kind {
	case meet.IdentityAnonymous:
		return fmt.Sprintf("%s (Anonymous)", identity.DisplayName)
	case meet.IdentitySignedIn:
		return identity.DisplayName
	case meet.IdentityPhone:
		return fmt.Sprintf("%s (Phone)", identity.DisplayName)
	default:
		return "Unknown participant"
	}
}

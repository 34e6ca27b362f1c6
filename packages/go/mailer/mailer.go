package mailer

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"strings"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog"
)

// Sender delivers a message to every configured service. It is implemented by the shoutrrr router.
type Sender interface {
	Send(message string, params *stypes.Params) []error
}

// Mailer sends user notifications through shoutrrr service URLs (smtp://, and any other service
// shoutrrr supports). A Mailer without URLs only logs.
type Mailer struct {
	sender       Sender
	frontendHost string
	logger       *zerolog.Logger
}

func New(urls []string, frontendHost string, timeout time.Duration, l *zerolog.Logger) (*Mailer, error) {
	m := &Mailer{frontendHost: strings.TrimSuffix(frontendHost, "/"), logger: l}
	if len(urls) == 0 {
		l.Warn().Msg("no mail service configured, notifications are only logged")
		return m, nil
	}
	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("invalid mail service url: %w", err)
	}
	if timeout > 0 {
		router.Timeout = timeout
	}
	router.SetLogger(log.New(io.Discard, "", 0))
	m.sender = router
	return m, nil
}

// NewWithSender builds a Mailer on an existing sender.
func NewWithSender(sender Sender, frontendHost string, l *zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, frontendHost: strings.TrimSuffix(frontendHost, "/"), logger: l}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.sender != nil
}

// MissionLink is the frontend page of a mission version.
func (m *Mailer) MissionLink(versionID string) string {
	return m.frontendHost + "/data/" + versionID
}

// ScoreUpdatedMessage returns the subject and html body announcing an updated mission score.
func (m *Mailer) ScoreUpdatedMessage(versionID, missionName string) (string, string) {
	subject := fmt.Sprintf("Mission %s Score Updated", missionName)
	body := fmt.Sprintf(`<h2>%s</h2>
<p>The score for mission %s has been updated and is ready to review. Please click on this <a href="%s">link</a> to view the data.</p>`,
		html.EscapeString(subject), html.EscapeString(missionName), html.EscapeString(m.MissionLink(versionID)))
	return subject, body
}

// SendScoreUpdated notifies a user that the score of a mission version was recomputed.
func (m *Mailer) SendScoreUpdated(ctx context.Context, to, versionID, missionName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body := m.ScoreUpdatedMessage(versionID, missionName)
	if !m.Enabled() {
		m.logger.Info().Str("to", to).Str("subject", subject).Msg("mail not sent, no mail service configured")
		return nil
	}
	params := stypes.Params{}
	params.SetTitle(subject)
	if to != "" {
		params["toaddresses"] = to
	}
	for _, err := range m.sender.Send(body, &params) {
		if err != nil {
			return fmt.Errorf("unable to send score update mail: %w", err)
		}
	}
	m.logger.Debug().Str("to", to).Str("version_id", versionID).Msg("score update mail sent")
	return nil
}

package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMailerComposesReportMessage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "downtown_speakers_2024-09-01_report.md")
	require.NoError(t, os.WriteFile(path, []byte("# Downtown Speakers Club Report"), 0644))

	club, summary := sampleClub()
	model := Build(club, summary, "run-1")

	mailer := NewMailer(SmtpConfig{
		Server:       "smtp.example.org",
		Port:         587,
		EmailAddress: "reports@example.org",
		Recipients:   []string{"officers@example.org"},
	})
	mail, err := mailer.compose(model, []Output{{Renderer: "markdown", Path: path}})
	require.NoError(t, err)

	require.Equal(t, "Club Report <reports@example.org>", mail.From)
	require.Equal(t, []string{"officers@example.org"}, mail.To)
	require.Equal(t, "Downtown Speakers club report, September 1, 2024", mail.Subject)

	body := string(mail.Text)
	require.Contains(t, body, "Paid members: 2")
	require.Contains(t, body, "Active members: 2")
	// bob's data never fully arrived, the body says so
	require.Contains(t, body, "1 member(s) could not be fully collected")

	require.Len(t, mail.Attachments, 1)
	require.Equal(t, filepath.Base(path), mail.Attachments[0].Filename)
}

func TestMailerComposeFailsOnMissingAttachment(t *testing.T) {
	club, summary := sampleClub()
	model := Build(club, summary, "run-1")

	mailer := NewMailer(SmtpConfig{EmailAddress: "reports@example.org"})
	_, err := mailer.compose(model, []Output{{Renderer: "markdown", Path: filepath.Join(t.TempDir(), "missing.md")}})
	require.Error(t, err)
}

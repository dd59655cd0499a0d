package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"listingcrawler/pkg/config"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptEscape(message), appleScriptEscape(title))
	return exec.Command("osascript", "-e", script).Run()
}

func appleScriptEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("Listing Crawler").Show($toast)
	`, title, message)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// platformSender picks the desktop sender for the current OS, nil when unsupported
func platformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notification modes
const (
	ModeTerminal = "terminal"
	ModeDesktop  = "desktop"
	ModeNone     = "none"
)

// Notifier alerts the operator when a page needs manual verification.
// Terminal mode prints a banner; desktop mode also raises a system notification.
type Notifier struct {
	mode   string
	sender NotificationSender
	w      io.Writer
	hint   string
}

// NewNotifier creates a Notifier from the notification settings, writing banners to w
func NewNotifier(cfg config.NotificationConfig, w io.Writer) *Notifier {
	mode := strings.ToLower(cfg.NotificationType)
	if !cfg.Enabled || mode == "" {
		mode = ModeNone
	}
	n := &Notifier{mode: mode, w: w}
	if mode == ModeDesktop {
		n.sender = platformSender()
	}
	return n
}

// WithSender replaces the desktop sender
func (n *Notifier) WithSender(s NotificationSender) *Notifier {
	n.sender = s
	return n
}

// WithHint sets the instruction line shown under the verification banner
func (n *Notifier) WithHint(hint string) *Notifier {
	n.hint = hint
	return n
}

// NotifyVerification reports that page is blocked behind a verification wall at url
func (n *Notifier) NotifyVerification(page int, url string) {
	if n.mode == ModeNone {
		return
	}

	title := "Verification required"
	message := fmt.Sprintf("Page %d is blocked. Open %s in a browser and complete the check.", page, url)

	body := fmt.Sprintf("%s\n%s %d\n%s %s",
		warningStyle.Bold(true).Render(title),
		Cyan("page:"), page,
		Cyan("url:"), Yellow(url))
	if n.hint != "" {
		body += "\n" + Dim(n.hint)
	}
	fmt.Fprintf(n.w, "\n%s\n", alertStyle.Render(body))

	if n.mode == ModeDesktop && n.sender != nil {
		// Desktop delivery is best effort
		_ = n.sender.Send(title, message)
	}
}

// SendNotification prints a titled message and raises a desktop notification in desktop mode
func (n *Notifier) SendNotification(title, message string) {
	if n.mode == ModeNone {
		return
	}
	fmt.Fprintf(n.w, "\n%s: %s\n", Cyan(title), Yellow(message))
	if n.mode == ModeDesktop && n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}

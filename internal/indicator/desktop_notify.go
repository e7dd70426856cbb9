package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
)

type urgency byte

const (
	urgencyLow urgency = iota
	urgencyNormal
	urgencyCritical
)

// notice is one freedesktop notification. ReplaceID 0 asks for a new one.
type notice struct {
	AppName   string
	ReplaceID uint32
	Icon      string
	Summary   string
	Body      string
	Urgency   urgency
	TimeoutMS int
}

// args renders n as a busctl Notify call with an urgency hint.
func (n notice) args() []string {
	return []string{
		"--user", "call",
		notificationsDest, notificationsPath, notificationsIface,
		"Notify", "susssasa{sv}i",
		n.AppName,
		strconv.FormatUint(uint64(n.ReplaceID), 10),
		n.Icon,
		n.Summary,
		n.Body,
		"0",
		"1", "urgency", "y", strconv.Itoa(int(n.Urgency)),
		strconv.Itoa(n.TimeoutMS),
	}
}

// desktopNotify posts n over the session bus and returns the server's ID.
func desktopNotify(ctx context.Context, n notice) (uint32, error) {
	out, err := busctl(ctx, n.args()...)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: %w", err)
	}

	// busctl replies "u <id>".
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify: invalid response %q", out)
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: parse id %q: %w", fields[1], err)
	}
	return uint32(id), nil
}

func desktopDismiss(ctx context.Context, id uint32) error {
	_, err := busctl(ctx,
		"--user", "call",
		notificationsDest, notificationsPath, notificationsIface,
		"CloseNotification", "u", strconv.FormatUint(uint64(id), 10),
	)
	if err != nil {
		return fmt.Errorf("desktop dismiss: %w", err)
	}
	return nil
}

func busctl(ctx context.Context, args ...string) (string, error) {
	raw, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	out := strings.TrimSpace(string(raw))
	if err != nil {
		if out == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, out)
	}
	return out, nil
}

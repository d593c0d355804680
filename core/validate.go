package core

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	maxMessages      = 40
	maxMessageRunes  = 4000
	maxImagesPerTurn = 4
)

func validateConversation(msgs []Message) error {
	if len(msgs) == 0 {
		return ErrEmptyConversation
	}
	if len(msgs) > maxMessages {
		return fmt.Errorf("%w: %d > %d", ErrTooManyMessages, len(msgs), maxMessages)
	}
	for i, m := range msgs {
		switch m.Role {
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: %q at index %d", ErrBadRole, m.Role, i)
		}
		if strings.TrimSpace(m.Content) == "" && len(m.Images) == 0 {
			return fmt.Errorf("%w: index %d", ErrEmptyMessage, i)
		}
		if utf8.RuneCountInString(m.Content) > maxMessageRunes {
			return fmt.Errorf("%w: index %d", ErrMessageTooLong, i)
		}
		if len(m.Images) > maxImagesPerTurn {
			return fmt.Errorf("%w: index %d", ErrTooManyImages, i)
		}
		for _, raw := range m.Images {
			if err := validateImageURL(raw); err != nil {
				return err
			}
		}
	}
	if msgs[len(msgs)-1].Role != RoleUser {
		return ErrNoUserTurn
	}
	return nil
}

// validateImageURL accepts only https URLs that point at a public host.
// Attachment URLs are fetched by the completion API on our behalf, so
// anything resolving inside the deployment perimeter is rejected.
func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadImageURL, raw)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrBadImageURL, raw)
	}
	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("%w: %q", ErrBadImageURL, raw)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
			ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("%w: %q", ErrBadImageURL, raw)
		}
	}
	return nil
}

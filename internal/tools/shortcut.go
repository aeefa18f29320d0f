package tools

import (
	"context"

	"github.com/soyeahso/drivedesk/internal/domain"
)

// ShortcutResolver follows one shortcut to its target.
type ShortcutResolver interface {
	ResolveShortcut(ctx context.Context, id string) (domain.ShortcutTarget, error)
}

// FollowShortcut returns d with the target id and type when d is a
// shortcut, keeping the original index and display name. Non-shortcuts are
// returned unchanged. Only one hop is followed.
func FollowShortcut(ctx context.Context, r ShortcutResolver, d domain.ResourceDescriptor) (domain.ResourceDescriptor, error) {
	if d.Kind() != domain.KindShortcut {
		return d, nil
	}
	target, err := r.ResolveShortcut(ctx, d.ID)
	if err != nil {
		return d, err
	}
	d.ID = target.TargetID
	d.MimeType = target.TargetMimeType
	return d, nil
}

package port

import (
	"context"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

// PushDispatcher hands a message summary to the external notification
// pipeline for a recipient with no live connection. Best-effort.
type PushDispatcher interface {
	Dispatch(ctx context.Context, n domain.PushNotification) error
}

package port

import "github.com/nimbuschat/nimbus/internal/core/domain"

// TokenVerifier checks a credential presented at connection time and
// resolves it to an identity. Any failure refuses the connection.
type TokenVerifier interface {
	Verify(token string) (domain.UserID, error)
}

package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"fitness-gateway/internal/audit"
	"fitness-gateway/internal/directory/client"
	"fitness-gateway/internal/identity"
)

// userIDHeader carries the gateway-asserted identity to downstream services.
const userIDHeader = "X-User-ID"

// DirectoryClient is the subset of the user directory used for identity
// synchronization.
type DirectoryClient interface {
	Exists(ctx context.Context, subjectID string) (bool, error)
	Register(ctx context.Context, req identity.RegisterRequest) (*client.User, error)
}

// UserSync returns middleware that keeps the user directory in sync with the
// identity asserted by each request's bearer token. It resolves an effective
// user ID (explicit X-User-ID header, else the token's subject), registers the
// user in the directory when missing, and overwrites the outgoing X-User-ID
// header so downstream services always see a gateway-asserted identity.
//
// Synchronization is best-effort: directory failures are logged and the
// request is forwarded regardless. Rejecting unauthenticated traffic is the
// auth middleware's job, not this one's.
func UserSync(directory DirectoryClient, emitter audit.EventEmitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := identity.Extract(r.Header.Get("Authorization"))

			effectiveID := r.Header.Get(userIDHeader)
			if effectiveID == "" && claims != nil {
				effectiveID = claims.Subject
			}
			if effectiveID == "" {
				syncOutcomes.WithLabelValues(syncOutcomeBypass).Inc()
				next.ServeHTTP(w, r)
				return
			}

			outcome := syncUser(r.Context(), directory, emitter, effectiveID, claims)
			syncOutcomes.WithLabelValues(outcome).Inc()

			r.Header.Set(userIDHeader, effectiveID)
			next.ServeHTTP(w, r)
		})
	}
}

// syncUser checks the directory for effectiveID and registers it when claims
// are available and no record exists. It never fails the request; the returned
// outcome is a metrics label value.
func syncUser(ctx context.Context, directory DirectoryClient, emitter audit.EventEmitter, effectiveID string, claims *identity.Claims) string {
	exists, err := directory.Exists(ctx, effectiveID)
	if err != nil {
		log.Printf("user sync: existence check for %s failed: %v", effectiveID, err)
		audit.EmitAsync(emitter, audit.NewEvent(audit.EventDirectoryUnavailable, effectiveID, err.Error()))
		return syncOutcomeDegraded
	}
	if exists {
		return syncOutcomeExists
	}
	if claims == nil {
		// Explicit header with no token claims: nothing to register from.
		return syncOutcomeExists
	}

	if _, err := directory.Register(ctx, claims.RegisterRequest()); err != nil {
		var invalid *client.InvalidRegistrationError
		switch {
		case errors.As(err, &invalid):
			// A concurrent request won the registration race, or the
			// directory rejected the payload. Either way the request
			// proceeds; the identity is presumed to exist now.
			log.Printf("user sync: registration of %s rejected: %v", effectiveID, invalid)
			audit.EmitAsync(emitter, audit.NewEvent(audit.EventSyncConflict, effectiveID, invalid.Error()))
			return syncOutcomeConflict
		default:
			log.Printf("user sync: registration of %s failed: %v", effectiveID, err)
			audit.EmitAsync(emitter, audit.NewEvent(audit.EventDirectoryUnavailable, effectiveID, err.Error()))
			return syncOutcomeDegraded
		}
	}

	log.Printf("user sync: registered %s", effectiveID)
	audit.EmitAsync(emitter, audit.NewEvent(audit.EventUserRegistered, effectiveID, ""))
	return syncOutcomeRegistered
}

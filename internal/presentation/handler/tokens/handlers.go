package tokens

import (
	"errors"
	"net/http"

	"github.com/lingopods/roomsync/internal/infrastructure/json"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/metrics"
	"github.com/lingopods/roomsync/internal/infrastructure/validate"
	"github.com/lingopods/roomsync/internal/tokens"
)

var (
	validateRoomID   = validate.Field("roomId", validate.Required(), validate.MaxLength(128), validate.NoControlChars())
	validateUsername = validate.Field("username", validate.MaxLength(64), validate.NoControlChars())
)

type Handler struct {
	issuer         *tokens.Issuer
	identityHeader string
	logger         logging.Logger
}

func NewHandler(issuer *tokens.Issuer, identityHeader string, logger logging.Logger) *Handler {
	return &Handler{
		issuer:         issuer,
		identityHeader: identityHeader,
		logger:         logger,
	}
}

// IssueTokenHandler mints a LiveKit join token for the authenticated
// caller. The identity comes from the auth proxy header, never from the
// body: a client can pick its display name but not who it is.
func (h *Handler) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	identity := r.Header.Get(h.identityHeader)
	if identity == "" {
		metrics.TokenFailuresTotal.WithLabelValues("unauthenticated").Inc()
		json.WriteUnauthorizedError(w, "Authentication required")
		return
	}

	var req issueTokenRequest
	if err := json.Read(r, &req); err != nil {
		metrics.TokenFailuresTotal.WithLabelValues("invalid_argument").Inc()
		json.WriteValidationError(w, err)
		return
	}

	if err := validateRoomID(req.RoomID); err != nil {
		metrics.TokenFailuresTotal.WithLabelValues("invalid_argument").Inc()
		json.WriteValidationError(w, err)
		return
	}
	if err := validateUsername(req.Username); err != nil {
		metrics.TokenFailuresTotal.WithLabelValues("invalid_argument").Inc()
		json.WriteValidationError(w, err)
		return
	}

	token, err := h.issuer.Issue(identity, req.RoomID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrMissingRoom):
			metrics.TokenFailuresTotal.WithLabelValues("invalid_argument").Inc()
			json.WriteValidationError(w, err)
		case errors.Is(err, tokens.ErrMissingIdentity):
			metrics.TokenFailuresTotal.WithLabelValues("unauthenticated").Inc()
			json.WriteUnauthorizedError(w, "Authentication required")
		default:
			metrics.TokenFailuresTotal.WithLabelValues("internal").Inc()
			h.logger.Error(logging.Token, logging.ExternalService, "token signing failed", map[logging.ExtraKey]any{
				logging.RoomID:       req.RoomID,
				logging.ErrorMessage: err.Error(),
			})
			json.WriteInternalError(w)
		}
		return
	}

	metrics.TokensIssuedTotal.Inc()
	json.Write(w, http.StatusOK, issueTokenResponse{Token: token})
}

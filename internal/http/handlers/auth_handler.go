// Token endpoint HTTP handler.
//
// This file exposes the OAuth2 client-credentials token endpoint:
//   - POST /v1/protocol/openid-connect/token  (form-encoded)
//
// Handlers in this file are transport-thin: they validate input, delegate to
// the auth service, and translate service errors into HTTP results. Every
// authentication failure maps to the same generic 401 body; the specific
// reason is only written to server logs.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/connectmoney/go-payments-backend/internal/http/middleware"
	"github.com/connectmoney/go-payments-backend/internal/services"
)

// TokenRequest is the form-encoded payload of the token endpoint, following
// the OAuth2 client-credentials convention.
type TokenRequest struct {
	GrantType    string `form:"grant_type"    binding:"required,eq=client_credentials"`
	ClientID     string `form:"client_id"     binding:"required"`
	ClientSecret string `form:"client_secret" binding:"required"`
}

// tokenFieldNames maps struct fields to their wire names for validation maps.
var tokenFieldNames = map[string]string{
	"GrantType":    "grant_type",
	"ClientID":     "client_id",
	"ClientSecret": "client_secret",
}

// IssueToken godoc
// @ID          issueToken
// @Summary     Issue an access token
// @Description Authenticates a client with the client-credentials grant and returns a signed bearer token.
// @Tags        Auth
// @Accept      x-www-form-urlencoded
// @Produce     json
//
// @Param       grant_type    formData string true "Must be client_credentials"
// @Param       client_id     formData string true "Client identifier"
// @Param       client_secret formData string true "Client secret"
//
// @Success     200 {object} services.Token
// @Failure     400 {object} handlers.ValidationResponse "Invalid form fields"
// @Failure     401 {object} handlers.ErrorResponse      "Authentication failed"
// @Failure     429 {object} handlers.ErrorResponse      "Rate limited"
// @Failure     500 {object} handlers.ErrorResponse      "Internal server error"
// @Router      /v1/protocol/openid-connect/token [post]
func (h *Handlers) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		failValidation(c, bindErrors(err, tokenFieldNames))
		return
	}

	tok, err := h.authSvc.Authenticate(c.Request.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownClient),
			errors.Is(err, services.ErrClientInactive),
			errors.Is(err, services.ErrInvalidSecret),
			errors.Is(err, services.ErrClientLocked):
			// One generic body for every credential failure.
			middleware.AuthFailure()
			middleware.LoggerFrom(c).Warn().
				Str("client_id", req.ClientID).
				Err(err).
				Msg("token request rejected")
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, msgAuthFailed)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		}
		return
	}

	ok(c, http.StatusOK, tok)
}

// bindErrors converts gin binding failures into a per-field error map using
// the supplied field-name translation. Non-validator errors (malformed body,
// wrong content type) collapse into a single "body" entry.
func bindErrors(err error, names map[string]string) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "request body is malformed"
		return out
	}
	for _, fe := range verrs {
		name := names[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			out[name] = name + " is required"
		case "eq":
			out[name] = name + " must be: '" + fe.Param() + "'"
		case "datetime":
			out[name] = name + " must match the format " + fe.Param()
		default:
			out[name] = name + " is invalid"
		}
	}
	return out
}

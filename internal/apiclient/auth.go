package apiclient

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/models"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials locally before any network call.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
	if err != nil {
		return &apperr.ValidationError{Message: err.Error()}
	}
	return nil
}

// Registration is the register request body.
type Registration struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	DealershipName string `json:"dealership_name"`
	Role           string `json:"role"`
}

// Validate checks the registration locally before any network call.
func (r Registration) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.DealershipName, validation.Required),
		validation.Field(&r.Role, validation.Required, validation.In(models.RoleDealer, models.RoleAdmin)),
	)
	if err != nil {
		return &apperr.ValidationError{Message: err.Error()}
	}
	return nil
}

// RegisterConfirmation is the created-account confirmation payload.
type RegisterConfirmation struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// Login exchanges credentials for a token and user profile. It does not
// establish the session; that is the caller's decision.
func (c *Client) Login(ctx context.Context, creds Credentials) (models.Session, error) {
	if err := creds.Validate(); err != nil {
		return models.Session{}, err
	}
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: resp.Token, User: resp.User}, nil
}

// Register creates a new account. The account must then log in; no session
// results from registration.
func (c *Client) Register(ctx context.Context, reg Registration) (RegisterConfirmation, error) {
	if err := reg.Validate(); err != nil {
		return RegisterConfirmation{}, err
	}
	var resp RegisterConfirmation
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", reg, &resp); err != nil {
		return RegisterConfirmation{}, err
	}
	return resp, nil
}

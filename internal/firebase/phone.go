package firebase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

var (
	ErrInvalidPhoneNumber = errors.New("phone number must be in E.164 format")
	ErrMissingSession     = errors.New("sessionInfo and code are required")
)

// PhoneAuth runs the two-step phone number sign-in against Identity Toolkit:
// SendCode texts a verification code, Verify exchanges it for tokens.
type PhoneAuth struct {
	svc *identitytoolkit.Service
}

// PhoneSession is the result of a completed phone sign-in.
type PhoneSession struct {
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	UID          string    `json:"uid"`
	PhoneNumber  string    `json:"phoneNumber"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsNewUser    bool      `json:"isNewUser"`
}

// NewPhoneAuth authenticates requests with the web API key only. Extra
// options are appended, which is how tests point it at a local server.
func NewPhoneAuth(ctx context.Context, apiKey string, opts ...option.ClientOption) (*PhoneAuth, error) {
	o := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, o...)
	if err != nil {
		return nil, err
	}
	return &PhoneAuth{svc: svc}, nil
}

// RecaptchaSiteKey returns the reCAPTCHA site key the project expects phone
// sign-in tokens to be issued for.
func (p *PhoneAuth) RecaptchaSiteKey(ctx context.Context) (string, error) {
	resp, err := p.svc.Relyingparty.GetRecaptchaParam().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get recaptcha params: %w", err)
	}
	return resp.RecaptchaSiteKey, nil
}

// SendCode starts sign-in for phoneNumber and returns the opaque session
// info that Verify needs.
func (p *PhoneAuth) SendCode(ctx context.Context, phoneNumber, recaptchaToken string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if !e164.MatchString(phoneNumber) {
		return "", ErrInvalidPhoneNumber
	}
	resp, err := p.svc.Relyingparty.SendVerificationCode(&identitytoolkit.IdentitytoolkitRelyingpartySendVerificationCodeRequest{
		PhoneNumber:    phoneNumber,
		RecaptchaToken: recaptchaToken,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send verification code: %w", err)
	}
	return resp.SessionInfo, nil
}

func (p *PhoneAuth) Verify(ctx context.Context, sessionInfo, code string) (*PhoneSession, error) {
	sessionInfo = strings.TrimSpace(sessionInfo)
	code = strings.TrimSpace(code)
	if sessionInfo == "" || code == "" {
		return nil, ErrMissingSession
	}
	resp, err := p.svc.Relyingparty.VerifyPhoneNumber(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPhoneNumberRequest{
		SessionInfo: sessionInfo,
		Code:        code,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("verify phone number: %w", err)
	}
	return &PhoneSession{
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		UID:          resp.LocalId,
		PhoneNumber:  resp.PhoneNumber,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC(),
		IsNewUser:    resp.IsNewUser,
	}, nil
}

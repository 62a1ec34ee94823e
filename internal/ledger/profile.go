package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/store"
)

// ProfileInput is the editable profile.
type ProfileInput struct {
	Name   string `validate:"required"`
	Email  string `validate:"required,email"`
	Mobile string `validate:"required"`
}

// PasswordInput is the change-password form.
type PasswordInput struct {
	Current string `validate:"required"`
	New     string `validate:"required,min=6"`
	Confirm string `validate:"required,eqfield=New"`
}

// SignupInput is the registration form.
type SignupInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Mobile   string `validate:"required"`
	Password string `validate:"required,min=6"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// Profiles manages the users collection.
type Profiles struct {
	*base
	accounts Accounts
}

// ValidateSignup checks a registration form before the account is created.
func (s *Profiles) ValidateSignup(in *SignupInput) error {
	trim(&in.Name, &in.Email, &in.Mobile)
	return check(s.validate, in)
}

// Load returns the profile, falling back to the identity's email when no
// profile document exists yet.
func (s *Profiles) Load(ctx context.Context) (model.Profile, error) {
	st, id, err := s.scoped()
	if err != nil {
		return model.Profile{}, err
	}
	doc, err := st.Get(ctx, model.ProfileCollection, id.UID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Profile{UID: id.UID, Email: id.Email}, nil
	}
	if err != nil {
		return model.Profile{}, apperr.From(err)
	}
	p := DecodeProfile(doc)
	if p.Email == "" {
		p.Email = id.Email
	}
	return p, nil
}

// Update saves the profile. A changed email is applied to the sign-in
// account first so a rejected email leaves the profile untouched.
func (s *Profiles) Update(ctx context.Context, in ProfileInput) error {
	trim(&in.Name, &in.Email, &in.Mobile)
	if err := check(s.validate, in); err != nil {
		return err
	}
	st, id, err := s.scoped()
	if err != nil {
		return err
	}
	if !strings.EqualFold(in.Email, id.Email) && s.accounts != nil {
		if err := s.accounts.UpdateEmail(ctx, in.Email); err != nil {
			return apperr.From(err)
		}
	}
	err = st.UpsertMerge(ctx, model.ProfileCollection, id.UID, map[string]any{
		FieldName:      in.Name,
		FieldEmail:     in.Email,
		FieldMobile:    in.Mobile,
		FieldUpdatedAt: store.ServerTimestamp,
	})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

// ChangePassword confirms the current password, then sets the new one.
func (s *Profiles) ChangePassword(ctx context.Context, in PasswordInput) error {
	if err := check(s.validate, in); err != nil {
		return err
	}
	if s.session.Current().IsZero() {
		return apperr.ErrNotAuthenticated
	}
	if s.accounts == nil {
		return apperr.ErrUnknownAuth
	}
	if err := s.accounts.Reauthenticate(ctx, in.Current); err != nil {
		if apperr.Is(err, apperr.ErrInvalidCredentials) {
			return apperr.Wrap(apperr.WithMessage(apperr.ErrInvalidCredentials, "Current password is incorrect"), err)
		}
		return apperr.From(err)
	}
	if err := s.accounts.ChangePassword(ctx, in.New); err != nil {
		return apperr.From(err)
	}
	return nil
}

// EnsureProfile creates the basic profile for a user who has none.
func (s *Profiles) EnsureProfile(ctx context.Context) error {
	st, id, err := s.scoped()
	if err != nil {
		return err
	}
	_, err = st.Get(ctx, model.ProfileCollection, id.UID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return st.UpsertMerge(ctx, model.ProfileCollection, id.UID, map[string]any{
		FieldEmail:     id.Email,
		FieldName:      DefaultName(id),
		FieldMobile:    "",
		FieldCreatedAt: store.ServerTimestamp,
	})
}

// DefaultName is the display name, else the email's local part, else "User".
func DefaultName(id model.Identity) string {
	if n := strings.TrimSpace(id.DisplayName); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}

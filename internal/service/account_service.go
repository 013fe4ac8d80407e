package service

import (
	"context"
	"slices"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// accountService implements AccountService.
type accountService struct {
	api         AccountBackend
	homeCountry string
	logger      zerolog.Logger
}

// NewAccountService creates an account service. homeCountry is the country
// name filled into addresses that leave it blank.
func NewAccountService(api AccountBackend, homeCountry string, logger zerolog.Logger) AccountService {
	return &accountService{
		api:         api,
		homeCountry: homeCountry,
		logger:      logger.With().Str("service", "account").Logger(),
	}
}

// UpdateProfile validates and saves the profile. The returned user is the
// current one overlaid with the backend's response.
func (s *accountService) UpdateProfile(ctx context.Context, token string, current model.User, upd model.ProfileUpdate) (model.User, error) {
	if current.ID == "" {
		return model.User{}, model.ErrLoginRequired
	}

	addrs, err := s.normalizeAddresses(upd.Addresses)
	if err != nil {
		return model.User{}, err
	}
	upd.Addresses = addrs

	if upd.NewPassword != upd.ConfirmPassword {
		return model.User{}, model.ErrPasswordMismatch
	}
	if upd.CurrentPassword == "" || upd.NewPassword == "" {
		upd.CurrentPassword, upd.NewPassword = "", ""
	}

	saved, err := s.api.UpdateProfile(ctx, token, current.ID, upd)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", current.ID).Msg("failed to update profile")
		return model.User{}, err
	}

	user := mergeUser(current, upd, saved)
	s.logger.Info().
		Str("user_id", user.ID).
		Int("addresses", len(user.Addresses)).
		Bool("password_changed", upd.NewPassword != "").
		Msg("profile updated")
	return user, nil
}

func (s *accountService) normalizeAddresses(in []model.Address) ([]model.Address, error) {
	if len(in) == 0 {
		return nil, model.ErrAddressListEmpty
	}

	out := slices.Clone(in)
	for i := range out {
		a := &out[i]
		a.Address = strings.TrimSpace(a.Address)
		a.City = strings.TrimSpace(a.City)
		a.State = strings.TrimSpace(a.State)
		a.Pincode = strings.TrimSpace(a.Pincode)
		if !a.Complete() {
			return nil, model.ErrIncompleteAddress
		}
		if strings.TrimSpace(a.Country) == "" {
			a.Country = s.homeCountry
		}
		a.IsPrimary = i == 0
	}
	return out, nil
}

// mergeUser overlays the submitted and saved profiles onto current.
// Non-empty fields of saved win.
func mergeUser(current model.User, upd model.ProfileUpdate, saved model.User) model.User {
	u := current
	u.FirstName = upd.FirstName
	u.LastName = upd.LastName
	u.Email = upd.Email
	u.Phone = upd.Phone
	u.Addresses = upd.Addresses

	if saved.ID != "" {
		u.ID = saved.ID
	}
	if saved.Name != "" {
		u.Name = saved.Name
	}
	if saved.FirstName != "" {
		u.FirstName = saved.FirstName
	}
	if saved.LastName != "" {
		u.LastName = saved.LastName
	}
	if saved.Email != "" {
		u.Email = saved.Email
	}
	if saved.Phone != "" {
		u.Phone = saved.Phone
	}
	if len(saved.Addresses) > 0 {
		u.Addresses = saved.Addresses
	}
	return u
}

// ChangePassword checks the confirmation before the required fields.
func (s *accountService) ChangePassword(ctx context.Context, token string, pc model.PasswordChange) error {
	if pc.NewPassword != pc.ConfirmPassword {
		return model.ErrPasswordMismatch
	}
	if pc.CurrentPassword == "" || pc.NewPassword == "" {
		return model.ErrPasswordFieldsRequired
	}

	if err := s.api.ChangePassword(ctx, token, pc); err != nil {
		s.logger.Warn().Err(err).Msg("password change rejected")
		return err
	}

	s.logger.Info().Msg("password changed")
	return nil
}

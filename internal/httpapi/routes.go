// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"github.com/gofiber/fiber/v3"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/response"
)

func (h *Handler) register(c fiber.Ctx) error {
	var in auth.RegisterInput
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	if fields := auth.ValidateRegister(in); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	res, err := h.svc.Register(c.Context(), in)
	if err != nil {
		return h.fail(c, auth.OpRegister, err)
	}
	return h.write(c, response.Registered(res))
}

func (h *Handler) login(c fiber.Ctx) error {
	var in auth.LoginInput
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	if fields := auth.ValidateLogin(in); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	res, err := h.svc.Login(c.Context(), in.Username, in.Password)
	if err != nil {
		return h.fail(c, auth.OpLogin, err)
	}
	return h.write(c, response.LoggedIn(res))
}

func (h *Handler) forgotPassword(c fiber.Ctx) error {
	var in auth.ResetRequestInput
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	if fields := auth.ValidateResetRequest(in); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	if err := h.svc.RequestPasswordReset(c.Context(), in.Email); err != nil {
		return h.fail(c, auth.OpRequestPasswordReset, err)
	}
	return h.write(c, response.OK(response.MsgResetRequested))
}

func (h *Handler) resetPassword(c fiber.Ctx) error {
	var in auth.ResetConfirmInput
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	if fields := auth.ValidateResetConfirm(in); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	if err := h.svc.ConfirmPasswordReset(c.Context(), in.Token, in.NewPassword); err != nil {
		return h.fail(c, auth.OpConfirmPasswordReset, err)
	}
	return h.write(c, response.OK(response.MsgPasswordReset))
}

func (h *Handler) verifyEmail(c fiber.Ctx) error {
	var in auth.VerifyEmailInput
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	if fields := auth.ValidateVerifyEmail(in); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	if err := h.svc.VerifyEmail(c.Context(), in.Token); err != nil {
		return h.fail(c, auth.OpVerifyEmail, err)
	}
	return h.write(c, response.OK(response.MsgEmailVerified))
}

func (h *Handler) changePassword(c fiber.Ctx) error {
	claims, _ := ClaimsFrom(c)
	var in auth.ChangePasswordInput
	if ok, err := h.bind(c, &in); !ok {
		return err
	}
	if fields := auth.ValidateChangePassword(in); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	if err := h.svc.ChangePassword(c.Context(), claims.AccountID, in.CurrentPassword, in.NewPassword); err != nil {
		return h.fail(c, auth.OpChangePassword, err)
	}
	return h.write(c, response.OK(response.MsgPasswordChanged))
}

func (h *Handler) getProfile(c fiber.Ctx) error {
	claims, _ := ClaimsFrom(c)
	account, err := h.svc.GetProfile(c.Context(), claims.AccountID)
	if err != nil {
		return h.fail(c, auth.OpGetProfile, err)
	}
	return h.write(c, response.Profile(response.MsgProfileRetrieved, account))
}

func (h *Handler) updateProfile(c fiber.Ctx) error {
	claims, _ := ClaimsFrom(c)
	var upd auth.ProfileUpdate
	if ok, err := h.bind(c, &upd); !ok {
		return err
	}
	if fields := auth.ValidateProfileUpdate(upd); !fields.Empty() {
		return h.write(c, response.ValidationFailed(fields))
	}

	account, err := h.svc.UpdateProfile(c.Context(), claims.AccountID, upd)
	if err != nil {
		return h.fail(c, auth.OpUpdateProfile, err)
	}
	return h.write(c, response.Profile(response.MsgProfileUpdated, account))
}

func (h *Handler) logout(c fiber.Ctx) error {
	claims, _ := ClaimsFrom(c)
	if err := h.svc.Logout(c.Context(), claims); err != nil {
		return h.fail(c, auth.OpLogout, err)
	}
	return h.write(c, response.OK(response.MsgLoggedOut))
}

package handler

import (
	"context"

	"go.uber.org/zap"

	"vaccine-scheduler/internal/model"
)

func (h *Handler) createPatient(ctx context.Context, args []string) {
	h.create(ctx, model.Patient, args[0], args[1])
}

func (h *Handler) createCaregiver(ctx context.Context, args []string) {
	h.create(ctx, model.Caregiver, args[0], args[1])
}

func (h *Handler) create(ctx context.Context, role model.Role, username, password string) {
	if err := h.accounts.Register(ctx, role, username, password); err != nil {
		h.report(err, "creating the account")
		return
	}
	h.println(" *** Account created successfully *** ")
}

func (h *Handler) loginPatient(ctx context.Context, args []string) {
	h.login(ctx, model.Patient, args[0], args[1])
}

func (h *Handler) loginCaregiver(ctx context.Context, args []string) {
	h.login(ctx, model.Caregiver, args[0], args[1])
}

func (h *Handler) login(ctx context.Context, role model.Role, username, password string) {
	// refuse before touching the password hash
	if !h.sess.Current().IsZero() {
		h.println("Already logged-in!")
		return
	}
	who, err := h.accounts.Authenticate(ctx, role, username, password)
	if err != nil {
		h.report(err, "logging in")
		return
	}
	if err := h.sess.Login(who); err != nil {
		h.report(err, "logging in")
		return
	}
	h.log.Info("logged in", zap.String("role", role.String()), zap.String("username", who.Username))
	switch role {
	case model.Patient:
		h.println("Patient logged in as: " + who.Username)
	default:
		h.println("Caregiver logged in as: " + who.Username)
	}
}

func (h *Handler) logout(_ context.Context, _ []string) {
	who := h.sess.Current()
	if err := h.sess.Logout(); err != nil {
		h.report(err, "logging out")
		return
	}
	h.log.Info("logged out", zap.String("username", who.Username))
	h.println("*** Logout Successfully ***")
}

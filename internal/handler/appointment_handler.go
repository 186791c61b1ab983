package handler

import (
	"context"
	"strconv"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/scheduler"
)

func (h *Handler) reserve(ctx context.Context, args []string) {
	appt, err := h.sched.Reserve(ctx, h.sess.Current(), args[0], args[1])
	if err != nil {
		h.report(err, "reserving")
		return
	}
	h.println("*** Reservation Success! ***")
	h.printf("Appointment ID: %d, Caregiver username: %s\n", appt.ID, appt.Caregiver)
}

func (h *Handler) cancel(ctx context.Context, args []string) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		h.report(scheduler.ErrInvalidAppointmentID, "cancelling")
		return
	}
	if err := h.sched.Cancel(ctx, h.sess.Current(), id); err != nil {
		h.report(err, "cancelling")
		return
	}
	h.println("*** Appointment cancelled ***")
}

func (h *Handler) uploadAvailability(ctx context.Context, args []string) {
	if err := h.sched.UploadAvailability(ctx, h.sess.Current(), args[0]); err != nil {
		h.report(err, "uploading availability")
		return
	}
	h.println("Availability uploaded!")
}

func (h *Handler) showAppointments(ctx context.Context, _ []string) {
	who := h.sess.Current()
	appts, err := h.sched.Appointments(ctx, who)
	if err != nil {
		h.report(err, "showing appointments")
		return
	}
	if len(appts) == 0 {
		h.println("There is no Appointment info")
		return
	}
	h.println("Your Appointment info are:")
	for _, a := range appts {
		h.printf("Id: %d\n", a.ID)
		h.printf("Vaccine Name: %s\n", a.Vaccine)
		h.printf("Time: %s\n", a.Date.Format(model.DateLayout))
		if who.IsCaregiver() {
			h.printf("Patient Name: %s\n", a.Patient)
		} else {
			h.printf("Caregiver Name: %s\n", a.Caregiver)
		}
		h.println()
	}
}

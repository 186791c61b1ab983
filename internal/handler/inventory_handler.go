package handler

import (
	"context"
	"strconv"

	"github.com/dustin/go-humanize"

	"vaccine-scheduler/internal/scheduler"
)

func (h *Handler) addDoses(ctx context.Context, args []string) {
	n, err := strconv.Atoi(args[1])
	if err != nil {
		h.report(scheduler.ErrInvalidDoses, "adding doses")
		return
	}
	if _, err := h.sched.AddDoses(ctx, h.sess.Current(), args[0], n); err != nil {
		h.report(err, "adding doses")
		return
	}
	h.println("Doses updated!")
}

func (h *Handler) search(ctx context.Context, args []string) {
	sched, err := h.sched.Search(ctx, args[0])
	if err != nil {
		h.report(err, "searching")
		return
	}
	if len(sched.Caregivers) == 0 {
		h.println("There is no available caregiver at that time!")
	} else {
		h.println("Available Caregivers are:")
		for _, name := range sched.Caregivers {
			h.println(name)
		}
	}
	h.println("Vaccine info here :")
	for _, v := range sched.Vaccines {
		h.printf("%s has %s left\n", v.Name, humanize.Comma(int64(v.Doses)))
	}
}

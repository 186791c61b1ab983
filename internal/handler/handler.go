// Package handler is the command layer of the scheduler shell. It turns one
// line of input into a call on the accounts or the scheduler and prints the
// outcome for a person at a terminal.
package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"vaccine-scheduler/internal/auth"
	"vaccine-scheduler/internal/scheduler"
	"vaccine-scheduler/internal/session"
)

type Handler struct {
	sched    *scheduler.Scheduler
	accounts *auth.Accounts
	sess     *session.Session
	out      io.Writer
	log      *zap.Logger
	commands map[string]command
}

type command struct {
	usage string
	args  int
	run   func(ctx context.Context, args []string)
}

func New(sched *scheduler.Scheduler, accounts *auth.Accounts, sess *session.Session, out io.Writer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{sched: sched, accounts: accounts, sess: sess, out: out, log: log}
	h.commands = map[string]command{
		"create_patient":            {"create_patient <username> <password>", 2, h.createPatient},
		"create_caregiver":          {"create_caregiver <username> <password>", 2, h.createCaregiver},
		"login_patient":             {"login_patient <username> <password>", 2, h.loginPatient},
		"login_caregiver":           {"login_caregiver <username> <password>", 2, h.loginCaregiver},
		"search_caregiver_schedule": {"search_caregiver_schedule <date>", 1, h.search},
		"reserve":                   {"reserve <date> <vaccine>", 2, h.reserve},
		"upload_availability":       {"upload_availability <date>", 1, h.uploadAvailability},
		"cancel":                    {"cancel <appointment_id>", 1, h.cancel},
		"add_doses":                 {"add_doses <vaccine> <number>", 2, h.addDoses},
		"show_appointments":         {"show_appointments", 0, h.showAppointments},
		"logout":                    {"logout", 0, h.logout},
	}
	return h
}

var menu = []string{
	"create_patient", "create_caregiver", "login_patient", "login_caregiver",
	"search_caregiver_schedule", "reserve", "upload_availability", "cancel",
	"add_doses", "show_appointments", "logout",
}

// Banner prints the greeting and the command list.
func (h *Handler) Banner() {
	h.println()
	h.println("Welcome to the COVID-19 Vaccine Reservation Scheduling Application!")
	h.println("*** Please enter one of the following commands ***")
	for _, name := range menu {
		h.println("> " + h.commands[name].usage)
	}
	h.println("> quit")
	h.println()
}

// Exec runs a single command line and reports whether the shell should stop.
func (h *Handler) Exec(ctx context.Context, line string) (quit bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		h.println("Please try again!")
		return false
	}
	name, args := tokens[0], tokens[1:]
	if name == "quit" {
		h.println("Bye!")
		return true
	}
	cmd, ok := h.commands[name]
	if !ok {
		h.println("Invalid operation name!")
		return false
	}
	if len(args) != cmd.args {
		h.println("Please try again!")
		return false
	}
	h.log.Debug("command", zap.String("name", name))
	cmd.run(ctx, args)
	return false
}

// Run reads commands from in until quit, end of input or ctx is done. The
// prompt is only shown when in is a terminal.
func (h *Handler) Run(ctx context.Context, in io.Reader) error {
	prompt := false
	if f, ok := in.(*os.File); ok {
		prompt = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	h.Banner()
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(h.out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if h.Exec(ctx, sc.Text()) {
			return nil
		}
	}
}

func (h *Handler) println(a ...any) {
	fmt.Fprintln(h.out, a...)
}

func (h *Handler) printf(format string, a ...any) {
	fmt.Fprintf(h.out, format, a...)
}

// report prints the user-facing message for err. Faults that are not a
// rule rejection are printed as "Error occurred when <doing>".
func (h *Handler) report(err error, doing string) {
	var policy *auth.PolicyError
	switch {
	case errors.As(err, &policy):
		h.println("Your password is invalid!")
		for _, p := range policy.Problems {
			h.println("Your password " + p + "!")
		}
	case errors.Is(err, auth.ErrUsernameTaken):
		h.println("Username taken, try again!")
	case errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrMissingField):
		h.println("Please try again!")
	case errors.Is(err, auth.ErrTooManyAttempts):
		h.println("Too many login attempts, please wait and try again!")
	case errors.Is(err, session.ErrAlreadyLoggedIn):
		h.println("Already logged-in!")
	case errors.Is(err, session.ErrNotLoggedIn):
		h.println("You haven't logged in!")
	case errors.Is(err, scheduler.ErrNotLoggedIn):
		h.println("Please login first!")
	case errors.Is(err, scheduler.ErrPatientOnly):
		h.println("Please login as a patient first!")
	case errors.Is(err, scheduler.ErrCaregiverOnly):
		h.println("Please login as a caregiver first!")
	case errors.Is(err, scheduler.ErrInvalidDate):
		h.println("Please enter a valid date!")
	case errors.Is(err, scheduler.ErrUnknownVaccine):
		h.println("Not valid vaccine name!")
	case errors.Is(err, scheduler.ErrInsufficientInventory):
		h.println("Not enough doses, please try again later!")
	case errors.Is(err, scheduler.ErrNoAvailability):
		h.println("All spots reserved, please try again later!")
	case errors.Is(err, scheduler.ErrInvalidAppointmentID):
		h.println("Invalid Appointment ID!")
	case errors.Is(err, scheduler.ErrUnauthorized):
		h.println("You have no access to change the Appointment!")
	case errors.Is(err, scheduler.ErrInvalidDoses):
		h.println("Please enter a valid number of doses!")
	default:
		h.log.Debug("command failed", zap.String("doing", doing), zap.Error(err))
		h.println("Error occurred when " + doing)
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"meela-intake/intake"
)

const (
	cmdNext  = ":next"
	cmdBack  = ":back"
	cmdReset = ":reset"
	cmdURL   = ":url"
	cmdQuit  = ":quit"
)

var stepPrompts = map[int]string{
	1: "Email",
	2: "Who is this therapy for?",
	3: "Therapist preference",
}

// session читает строки ввода и переводит их в вызовы контроллера.
type session struct {
	ctrl *intake.Controller
	page *intake.PageURL
	in   *bufio.Scanner
	out  io.Writer
}

func newSession(ctrl *intake.Controller, page *intake.PageURL, in io.Reader, out io.Writer) *session {
	return &session{ctrl: ctrl, page: page, in: bufio.NewScanner(in), out: out}
}

// Run завершается по :quit, концу ввода или отмене ctx.
func (s *session) Run(ctx context.Context) error {
	if s.ctrl.SessionID() != "" {
		restored, err := s.ctrl.Hydrate(ctx)
		if err != nil {
			return err
		}
		if restored {
			s.printf("Resumed saved session %s\n", s.ctrl.SessionID())
		}
	}

	for {
		s.render()
		if !s.in.Scan() {
			return s.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(s.in.Text())
		switch line {
		case "":
			continue
		case cmdQuit:
			return nil
		case cmdNext:
			s.report(s.ctrl.Advance(ctx))
		case cmdBack:
			s.report(s.ctrl.Retreat(ctx))
		case cmdReset:
			s.report(s.ctrl.Reset())
		case cmdURL:
			s.printf("%s\n", s.page.String())
		default:
			if strings.HasPrefix(line, ":") {
				s.printf("Unknown command %q. Commands: %s\n", line,
					strings.Join([]string{cmdNext, cmdBack, cmdReset, cmdURL, cmdQuit}, " "))
				continue
			}
			s.answer(line)
		}
	}
}

func (s *session) answer(line string) {
	step := s.ctrl.Step()
	value := line
	if options := intake.StepOptions(step); options != nil {
		option, ok := resolveOption(options, line)
		if !ok {
			s.printf("Pick one of the options by number or value\n")
			return
		}
		value = option.Value
	}
	s.ctrl.UpdateField(intake.StepField(step), value)
}

// resolveOption принимает значение варианта или его номер, начиная с 1.
func resolveOption(options []intake.Option, input string) (intake.Option, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(options) {
			return intake.Option{}, false
		}
		return options[n-1], true
	}
	return lo.Find(options, func(o intake.Option) bool {
		return strings.EqualFold(o.Value, input)
	})
}

func (s *session) render() {
	step := s.ctrl.Step()
	current := s.ctrl.Fields().Get(intake.StepField(step))

	s.printf("\nStep %d of %d: %s\n", step, intake.LastStep, stepPrompts[step])
	for i, option := range intake.StepOptions(step) {
		marker := " "
		if option.Value == current {
			marker = "*"
		}
		s.printf(" %s %d) %s\n", marker, i+1, option.Label)
	}
	if current != "" && intake.StepOptions(step) == nil {
		s.printf("  current: %s\n", current)
	}
	s.printf("> ")
}

func (s *session) report(err error) {
	if errors.Is(err, intake.ErrTransitionInFlight) {
		s.printf("Still saving, try again\n")
	}
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

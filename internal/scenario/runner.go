// Package scenario runs YAML fixtures that drive a guard step by step and
// compare every outcome with the expected one.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lazycheck/internal/guard"
	"lazycheck/internal/level"
	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
)

const (
	expectOK    = "ok"
	expectTrue  = "true"
	expectFalse = "false"
)

// Validate checks the scenario is well formed.
func (s *Scenario) Validate() error {
	if _, err := subject.NewKey(s.Subject); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	for i, st := range s.Steps {
		ops := 0
		if st.Allow != "" {
			ops++
		}
		if st.Report != nil {
			ops++
		}
		if st.Check != "" {
			ops++
		}
		if ops != 1 {
			return fmt.Errorf("scenario %q step %d: want exactly one of allow, report, check", s.Name, i+1)
		}
		if st.Allow != "" && st.Expect != "" {
			return fmt.Errorf("scenario %q step %d: allow takes no expectation", s.Name, i+1)
		}
	}
	return nil
}

// Run applies every step to a fresh guard for the scenario subject.
func Run(s *Scenario) (*RunResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	key := subject.MustKey(s.Subject)
	g := guard.New(key)

	result := &RunResult{Name: s.Name}
	for i, st := range s.Steps {
		switch {
		case st.Allow != "":
			l, err := parseLevel(st.Allow)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
			}
			g.Allow(l)
			continue

		case st.Report != nil:
			sr, err := runReport(g, key, st)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
			}
			result.add(i+1, sr)

		default:
			l, err := parseLevel(st.Check)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
			}
			expected := strings.ToLower(defaultString(st.Expect, expectTrue))
			if expected != expectTrue && expected != expectFalse {
				return nil, fmt.Errorf("scenario %q step %d: check expects true or false, got %q", s.Name, i+1, st.Expect)
			}
			actual := fmt.Sprint(g.CheckExactLevel(l))
			result.add(i+1, StepResult{
				Op:       "check " + l.String(),
				Expected: expected,
				Actual:   actual,
				Reason:   "current level is " + g.Current().String(),
			})
		}
	}
	result.Final = g.Current().String()
	return result, nil
}

func runReport(g *guard.Guard, key subject.Key, st Step) (StepResult, error) {
	r := st.Report
	l, err := parseLevel(r.Level)
	if err != nil {
		return StepResult{}, err
	}
	kind, err := reportKind(r.Kind, l)
	if err != nil {
		return StepResult{}, err
	}
	reported := key
	if r.Subject != "" {
		if reported, err = subject.NewKey(r.Subject); err != nil {
			return StepResult{}, err
		}
	}

	expected := strings.ToLower(defaultString(st.Expect, expectOK))
	if expected != expectOK {
		if _, err := guard.ParseViolationKind(expected); err != nil {
			return StepResult{}, err
		}
	}

	sr := StepResult{
		Op:       fmt.Sprintf("report %s (%s)", l, defaultString(r.Kind, kind.String())),
		Expected: expected,
		Actual:   expectOK,
	}
	if err := g.ReportAchieved(l, stub.Context{Subject: reported, Kind: kind}); err != nil {
		var v *guard.Violation
		if !errors.As(err, &v) {
			return StepResult{}, err
		}
		sr.Actual = v.Kind.String()
		sr.Reason = v.Error()
	}
	return sr, nil
}

// parseLevel accepts a level name or its ordinal (0, 1, 2).
func parseLevel(s string) (level.Level, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return level.FromOrdinal(n)
	}
	return level.ParseLevel(s)
}

// reportKind decodes the kind of a report step. An omitted kind is the
// tier that produces l; unrecognised kinds reach the guard as KindInvalid.
func reportKind(name string, l level.Level) (stub.Kind, error) {
	if strings.TrimSpace(name) == "" {
		kind, _ := stub.KindFor(l)
		return kind, nil
	}
	kind, err := stub.ParseKind(name)
	if err != nil && !errors.Is(err, stub.ErrUnknownKind) {
		return stub.KindInvalid, err
	}
	return kind, nil
}

func (r *RunResult) add(index int, sr StepResult) {
	sr.Index = index
	sr.Passed = sr.Actual == sr.Expected
	r.Total++
	if sr.Passed {
		r.Passed++
	} else {
		r.Failed++
	}
	r.Steps = append(r.Steps, sr)
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadAndRun loads and runs the scenario at path.
func LoadAndRun(path string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	result, err := Run(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	result.File = path
	return result, nil
}

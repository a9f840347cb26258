// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package policy evaluates lint rules over the facts of a running design.
// Rules are written in Rego and embedded in the package.
//
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"sort"

	"github.com/db47h/hwlogic"
	"github.com/db47h/hwlogic/internal/config"
	"github.com/open-policy-agent/opa/rego"
	"github.com/pkg/errors"
)

//go:embed lint.rego
var lintModule string

// Rules lists the lint rules with their default severity.
//
var Rules = map[string]string{
	"unused_input":    config.SeverityWarning,
	"undriven_output": config.SeverityError,
	"unread_variable": config.SeverityInfo,
}

// Violation is a lint rule violation.
//
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}

// Summary provides aggregate counts.
//
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Result contains the evaluation results.
//
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Engine evaluates the lint rules.
//
type Engine struct {
	query rego.PreparedEvalQuery
	cfg   *config.Config
}

// New prepares the lint rules. Rule severities are taken from cfg, which
// may be nil.
//
func New(ctx context.Context, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	q, err := rego.New(
		rego.Module("lint.rego", lintModule),
		rego.Query("data.hwlogic.lint.violations"),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "preparing lint rules")
	}
	return &Engine{query: q, cfg: cfg}, nil
}

// Evaluate runs the lint rules against f. Violations are sorted by rule and
// name. Rules set to "off" are skipped.
//
func (e *Engine) Evaluate(ctx context.Context, f *hwlogic.Facts) (*Result, error) {
	input, err := structToMap(f)
	if err != nil {
		return nil, errors.Wrap(err, "converting facts")
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, errors.Wrap(err, "evaluating lint rules")
	}
	r := &Result{Violations: []Violation{}}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return r, nil
	}
	vs, _ := rs[0].Expressions[0].Value.([]interface{})
	for _, x := range vs {
		m, ok := x.(map[string]interface{})
		if !ok {
			continue
		}
		v := Violation{
			Rule:    getString(m, "rule"),
			Name:    getString(m, "name"),
			Message: getString(m, "message"),
		}
		v.Severity = e.cfg.GetRuleSeverity(v.Rule, Rules[v.Rule])
		switch v.Severity {
		case config.SeverityOff:
			continue
		case config.SeverityError:
			r.Summary.Errors++
		case config.SeverityWarning:
			r.Summary.Warnings++
		default:
			r.Summary.Info++
		}
		r.Violations = append(r.Violations, v)
	}
	sort.Slice(r.Violations, func(i, j int) bool {
		a, b := &r.Violations[i], &r.Violations[j]
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Name < b.Name
	})
	return r, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	err = json.Unmarshal(data, &m)
	return m, err
}

func getString(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

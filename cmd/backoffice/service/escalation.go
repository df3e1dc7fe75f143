package service

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/config"
	"github.com/vestacare/credops/common/logger"
)

// EscalationEngine evaluates operator-defined CEL predicates against new
// incidents. A matching rule forces the incident to critical regardless
// of what the reporter submitted.
type EscalationEngine struct {
	rules []compiledRule
	log   *logger.Logger
}

type compiledRule struct {
	name    string
	program cel.Program
}

// NewEscalationEngine compiles the configured rules once at startup.
// A rule that fails to compile is a configuration error, not something
// to discover on the first incident.
func NewEscalationEngine(rules []config.EscalationRule, log *logger.Logger) (*EscalationEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("subcategory", cel.StringType),
		cel.Variable("critical", cel.BoolType),
		cel.Variable("description", cel.StringType),
		cel.Variable("followUpRequired", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	engine := &EscalationEngine{log: log}

	for _, rule := range rules {
		ast, issues := env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("escalation rule %q: %w", rule.Name, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("escalation rule %q: expression must evaluate to bool, got %s", rule.Name, ast.OutputType())
		}

		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("escalation rule %q: %w", rule.Name, err)
		}

		engine.rules = append(engine.rules, compiledRule{name: rule.Name, program: program})
	}

	return engine, nil
}

// Evaluate returns the names of all rules that match the incident.
// Evaluation errors skip the rule; a broken rule at runtime must not
// block incident intake.
func (e *EscalationEngine) Evaluate(req *models.CreateIncidentRequest) []string {
	if len(e.rules) == 0 {
		return nil
	}

	description := ""
	if req.IncidentDescription != nil {
		description = *req.IncidentDescription
	}

	vars := map[string]any{
		"subcategory":      req.Subcategory,
		"critical":         req.Critical,
		"description":      description,
		"followUpRequired": req.FollowUpRequired,
	}

	var matched []string
	for _, rule := range e.rules {
		out, _, err := rule.program.Eval(vars)
		if err != nil {
			e.log.Warn("escalation rule evaluation failed", "rule", rule.name, "error", err)
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			matched = append(matched, rule.name)
		}
	}

	return matched
}

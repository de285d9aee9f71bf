package engine

import (
	"github.com/websecscan/websecscan/pkg/authsession"
	"github.com/websecscan/websecscan/pkg/csrf"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/sqli"
	"github.com/websecscan/websecscan/pkg/traversal"
	"github.com/websecscan/websecscan/pkg/xss"
)

// builtinRunners lists the shipped runners in canonical order. The
// order is part of the report determinism contract.
func builtinRunners() []runner.Runner {
	return []runner.Runner{
		xss.NewTester(),
		sqli.NewTester(),
		traversal.NewTester(),
		csrf.NewTester(),
		authsession.NewTester(),
	}
}

/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package policy decides which escalation tier a failure count reaches.
package policy

import (
	"sort"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/constants"
)

type tier struct {
	level     int
	condition string
	program   *vm.Program
}

// Policy holds compiled tier conditions, highest level first. Conditions see two variables:
// failures (failures inside the window, current one included) and window_seconds.
type Policy struct {
	tiers  []tier
	window time.Duration
}

func env(failures int, window time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"failures":       failures,
		"window_seconds": int(window / time.Second),
	}
}

// New compiles the tier rules. Levels must be 1, 2 or 3 and appear at most once.
func New(rules []config.TierRuleConfig, window time.Duration) (*Policy, error) {

	if len(rules) == 0 {
		return nil, errors.New("at least one escalation tier is required")
	}
	seen := map[int]bool{}
	p := &Policy{window: window}
	for _, rule := range rules {
		if !constants.AllowedEscalationLevels[rule.Level] {
			return nil, errors.Errorf("escalation tier level %d is not one of 1, 2, 3", rule.Level)
		}
		if seen[rule.Level] {
			return nil, errors.Errorf("escalation tier level %d is configured twice", rule.Level)
		}
		seen[rule.Level] = true
		program, err := expr.Compile(rule.Condition, expr.Env(env(0, window)), expr.AsBool())
		if err != nil {
			return nil, errors.Wrapf(err, "compile condition of tier %d", rule.Level)
		}
		p.tiers = append(p.tiers, tier{level: rule.Level, condition: rule.Condition, program: program})
	}
	sort.Slice(p.tiers, func(i, j int) bool { return p.tiers[i].level > p.tiers[j].level })
	return p, nil
}

// Evaluate returns the highest tier whose condition holds, or 0.
func (p *Policy) Evaluate(failures int) (int, error) {

	vars := env(failures, p.window)
	for _, t := range p.tiers {
		out, err := expr.Run(t.program, vars)
		if err != nil {
			return 0, errors.Wrapf(err, "evaluate tier %d condition %q", t.level, t.condition)
		}
		if met, _ := out.(bool); met {
			return t.level, nil
		}
	}
	return 0, nil
}

// Window returns the observation window the policy was built for.
func (p *Policy) Window() time.Duration {
	return p.window
}

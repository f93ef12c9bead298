package config

import (
	"fmt"

	"github.com/ayusman/winklock/internal/gesture"
)

// Finding is a configuration problem that does not prevent loading.
type Finding struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Command, f.Message)
}

// Lint reports commands that can never match or never act.
func Lint(cfg *Config) []Finding {
	var findings []Finding
	seen := make(map[string]string)

	for i, c := range cfg.Commands {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}

		if len(c.Code) != cfg.MaxDigit {
			findings = append(findings, Finding{name, fmt.Sprintf("code has %d digits, max_digit is %d; it can never match", len(c.Code), cfg.MaxDigit)})
		}
		for _, s := range c.Code {
			if s != gesture.Zero && s != gesture.One {
				findings = append(findings, Finding{name, fmt.Sprintf("code contains %d; only 0 and 1 can be entered", s)})
				break
			}
		}

		key := gesture.FormatCode(c.Code)
		if first, ok := seen[key]; ok {
			findings = append(findings, Finding{name, fmt.Sprintf("same code as %s, which is listed first and wins", first)})
		} else {
			seen[key] = name
		}

		if _, ok := cfg.Actions[c.ActionID]; !ok {
			findings = append(findings, Finding{name, fmt.Sprintf("action %q is not in the dispatch table", c.ActionID)})
		}
	}

	return findings
}

// Package decision turns a classification context into a final result: one
// reasoning call under a versioned policy, then deterministic post-processing.
package decision

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/address-classifier/internal/model"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// Policy is the versioned decision policy: the instruction sent to the
// reasoning service and the acceptance rule applied to its reply.
type Policy struct {
	Version           string  `yaml:"version"`
	Threshold         float64 `yaml:"threshold"`
	AnnotateDowngrade bool    `yaml:"annotate_downgrade"`
	Instruction       string  `yaml:"instruction"`
	UserTemplate      string  `yaml:"user_template"`

	tmpl *template.Template
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("decision: embedded policy is invalid: %v", err))
	}
	return p
}

// LoadPolicy reads a policy from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "decision: read policy %s", path)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, eris.Wrapf(err, "decision: load policy %s", path)
	}
	return p, nil
}

// ParsePolicy decodes and validates a policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "decision: parse policy")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) validate() error {
	if strings.TrimSpace(p.Version) == "" {
		return eris.New("decision: policy version is required")
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return eris.Errorf("decision: policy threshold %v out of range [0,1]", p.Threshold)
	}
	if strings.TrimSpace(p.Instruction) == "" {
		return eris.New("decision: policy instruction is required")
	}
	if !strings.Contains(p.UserTemplate, "{{.Context}}") {
		return eris.New("decision: policy user_template must reference {{.Context}}")
	}

	tmpl, err := template.New("user").Option("missingkey=error").Parse(p.UserTemplate)
	if err != nil {
		return eris.Wrap(err, "decision: parse user_template")
	}
	p.tmpl = tmpl
	return nil
}

// RenderUser fills the user template with the serialized context.
func (p *Policy) RenderUser(contextJSON string) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, struct{ Context string }{contextJSON}); err != nil {
		return "", eris.Wrap(err, "decision: render user message")
	}
	return sb.String(), nil
}

// Accept applies the acceptance rule: a labeled result whose confidence is
// below the threshold becomes unknown.
func (p *Policy) Accept(r model.ClassificationResult) model.ClassificationResult {
	if r.Confidence >= p.Threshold || r.Category == model.CategoryUnknown {
		return r
	}

	r.Category = model.CategoryUnknown
	if p.AnnotateDowngrade {
		note := fmt.Sprintf("(Downgraded to unknown: confidence %.2f is below the %.2f acceptance threshold.)",
			r.Confidence, p.Threshold)
		if reason := strings.TrimSpace(r.Reason); reason != "" {
			note = reason + " " + note
		}
		r.Reason = note
	}
	return r
}

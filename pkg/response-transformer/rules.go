package responsetransformer

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Rules adjust the caching headers of responses before they are stored.
// The first matching rule wins.
type Rules []Rule

type Rule struct {
	Prefix   string            `yaml:"prefix"`
	Path     string            `yaml:"path"`
	Method   string            `yaml:"method"`
	Default  string            `yaml:"default"`
	Override string            `yaml:"override"`
	Query    map[string]string `yaml:"query"`
	Headers  map[string]string `yaml:"headers"`
}

// Validate returns all problems found in the rules.
func (r Rules) Validate() error {
	var result *multierror.Error
	for i, rule := range r {
		if rule.Path != "" && rule.Prefix != "" {
			result = multierror.Append(result, fmt.Errorf("rule %d: path and prefix are mutually exclusive", i))
		}
		if rule.Default != "" && rule.Override != "" {
			result = multierror.Append(result, fmt.Errorf("rule %d: default and override are mutually exclusive", i))
		}
		if rule.Default == "" && rule.Override == "" && len(rule.Headers) == 0 {
			result = multierror.Append(result, fmt.Errorf("rule %d: nothing to apply", i))
		}
	}
	return result.ErrorOrNil()
}

// Apply modifies the headers of a successful response according to the first matching rule.
// The response must carry the request it answers.
func (r Rules) Apply(res *http.Response, logger zerolog.Logger) {
	if res.StatusCode < 200 || res.StatusCode > 299 || res.Request == nil {
		return
	}
	if rule := r.find(res, logger); rule != nil {
		applyRuleToResponse(*rule, res, logger)
	}
}

func applyRuleToResponse(rule Rule, res *http.Response, logger zerolog.Logger) {
	if rule.Override != "" {
		logger.Trace().Msg("Overriding Cache-Control header")
		res.Header.Set("Cache-Control", rule.Override)
	} else if rule.Default != "" && res.Header.Get("Cache-Control") == "" {
		logger.Trace().Msg("Applying default Cache-Control header")
		res.Header.Set("Cache-Control", rule.Default)
	}
	for name, value := range rule.Headers {
		logger.Trace().Msgf("Setting header %s", name)
		res.Header.Set(name, value)
	}
}

func (r Rules) find(res *http.Response, logger zerolog.Logger) *Rule {
	req := res.Request
	logger.Trace().Msgf("Finding rule for request %s:%s", req.Method, req.URL.Path)
rulesLoop:
	for _, rule := range r {
		// rules without a method only cover reads
		if rule.Method == "" && req.Method != http.MethodGet && req.Method != http.MethodHead {
			continue
		}
		if rule.Method != "" && !strings.EqualFold(rule.Method, req.Method) {
			continue
		}
		if rule.Path != "" && rule.Path != req.URL.Path {
			continue
		}
		if rule.Prefix != "" && !strings.HasPrefix(req.URL.Path, rule.Prefix) {
			continue
		}
		if len(rule.Query) > 0 {
			qry := req.URL.Query()
			for name, value := range rule.Query {
				if value == "" && !qry.Has(name) {
					continue rulesLoop
				} else if value != "" && qry.Get(name) != value {
					continue rulesLoop
				}
			}
		}
		return &rule
	}
	return nil
}

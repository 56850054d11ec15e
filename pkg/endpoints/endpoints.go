package endpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/retroprint/labelforge/internal/utils"
)

// Properties describes how to query a single IGDB endpoint. The body is an
// Apicalypse query; count_endpoint_url is optional and points at the matching
// /count endpoint.
type Properties struct {
	EndpointURL      string `json:"endpoint_url"`
	CountEndpointURL string `json:"count_endpoint_url"`
	HTTPMethod       string `json:"http_method"`
	Body             string `json:"body"`
}

type Endpoint struct {
	Name       string     `json:"name"`
	Properties Properties `json:"properties"`
}

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Load reads the endpoint configuration file, substitutes {{var}} placeholders
// from vars and drops endpoints that fail validation. A missing or malformed
// file is fatal; an invalid entry only costs that one endpoint.
func Load(path string, vars map[string]string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("endpoints: reading configuration %s: %w", path, err)
	}

	var raw []Endpoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("endpoints: malformed configuration %s: %w", path, err)
	}

	valid := make([]Endpoint, 0, len(raw))
	for _, e := range raw {
		e.Properties.EndpointURL = substitute(e.Properties.EndpointURL, vars)
		e.Properties.CountEndpointURL = substitute(e.Properties.CountEndpointURL, vars)
		e.Properties.Body = substitute(e.Properties.Body, vars)

		if err := e.validate(); err != nil {
			utils.Log.Warnf("endpoints: skipping %q: %s", e.Name, err)
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}

// LoadOne reads a configuration file holding a single endpoint object.
// Unlike Load, a validation failure here is fatal: the caller has nothing to
// fall back to.
func LoadOne(path string, vars map[string]string) (Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Endpoint{}, fmt.Errorf("endpoints: reading configuration %s: %w", path, err)
	}

	var e Endpoint
	if err := json.Unmarshal(data, &e); err != nil {
		return Endpoint{}, fmt.Errorf("endpoints: malformed configuration %s: %w", path, err)
	}
	e.Properties.EndpointURL = substitute(e.Properties.EndpointURL, vars)
	e.Properties.CountEndpointURL = substitute(e.Properties.CountEndpointURL, vars)
	e.Properties.Body = substitute(e.Properties.Body, vars)

	if err := e.validate(); err != nil {
		return Endpoint{}, fmt.Errorf("endpoints: %s: %w", path, err)
	}
	return e, nil
}

// ByName returns the endpoint with the given name from a loaded list.
func ByName(list []Endpoint, name string) (Endpoint, error) {
	for _, e := range list {
		if e.Name == name {
			return e, nil
		}
	}
	return Endpoint{}, fmt.Errorf("endpoints: %q not found in configuration", name)
}

func (e Endpoint) validate() error {
	switch {
	case e.Name == "":
		return fmt.Errorf("missing name")
	case e.Properties.EndpointURL == "":
		return fmt.Errorf("missing endpoint_url")
	case e.Properties.HTTPMethod == "":
		return fmt.Errorf("missing http_method")
	case e.Properties.Body == "":
		return fmt.Errorf("missing body")
	}
	if rest := placeholder.FindString(e.Properties.Body); rest != "" {
		return fmt.Errorf("unresolved placeholder %s in body", rest)
	}
	return nil
}

// substitute replaces {{key}} placeholders with their values from vars.
// Unknown keys are left in place so validation can flag them.
func substitute(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		if val, ok := vars[key]; ok {
			return val
		}
		return match
	})
}

// Package registry is the pure lookup table mapping logical resource
// collection names to their admin API endpoints and optional
// response-shaping filters. It owns all per-collection endpoint quirks so
// the diff engine can stay shape-agnostic.
package registry

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/yourusername/confsync/internal/logger"
	"github.com/yourusername/confsync/internal/models"
)

// DefaultRealm is used when a caller does not scope an operation to a realm.
const DefaultRealm = "alpha"

// ResponseFilter reshapes a raw API response before it is compared or saved.
type ResponseFilter func(interface{}) interface{}

type entry struct {
	endpoint string // fmt pattern; %s is the realm where present
	realmed  bool
	filter   ResponseFilter
}

var endpoints = map[string]entry{
	// Realm-scoped endpoints
	"journeys": {endpoint: "/am/json/realms/root/realms/%s/realm-config/authentication/authenticationtrees/trees?_queryFilter=true", realmed: true},
	"scripts":  {endpoint: "/am/json/realms/root/realms/%s/scripts?_queryFilter=true", realmed: true, filter: DecodeScriptResponse},
	"services": {endpoint: "/am/json/realms/root/realms/%s/realm-config/services?_queryFilter=true", realmed: true},
	"authn":    {endpoint: "/am/json/realms/root/realms/%s/realm-config/authentication", realmed: true},
	"themes":   {endpoint: "/openidm/config/ui/themerealm?_fields=realm/%s", realmed: true},
	"oauth":    {endpoint: "/am/json/realms/root/realms/%s/realm-config/agents/OAuth2Client?_queryFilter=true", realmed: true},
	"saml":     {endpoint: "/am/json/realms/root/realms/%s/realm-config/federation/entityproviders/saml2?_queryFilter=true", realmed: true},
	"policies": {endpoint: "/am/json/realms/root/realms/%s/policies?_queryFilter=true", realmed: true},
	"webhooks": {endpoint: "/am/json/realms/root/realms/%s/realm-config/webhooks?_queryFilter=true", realmed: true},
	"agent":    {endpoint: "/am/json/realms/root/realms/%s/realm-config/agents?_queryFilter=true", realmed: true},

	// Agent subtypes
	"agents_gateway": {endpoint: "/am/json/realms/root/realms/%s/realm-config/agents/IdentityGatewayAgent?_queryFilter=true", realmed: true},
	"agents_java":    {endpoint: "/am/json/realms/root/realms/%s/realm-config/agents/J2EEAgent?_queryFilter=true", realmed: true},
	"agents_web":     {endpoint: "/am/json/realms/root/realms/%s/realm-config/agents/WebAgent?_queryFilter=true", realmed: true},

	// Root-level endpoints
	"realms":                {endpoint: "/am/json/realms?_queryFilter=true"},
	"applications":          {endpoint: "/openidm/managed/%s_application?_queryFilter=true", realmed: true},
	"managed":               {endpoint: "/openidm/config/managed"},
	"managed_objects":       {endpoint: "/openidm/config/managed"},
	"mappings":              {endpoint: "/openidm/config/sync"},
	"connectors":            {endpoint: `/openidm/config?_queryFilter=_id+sw+"provisioner"`},
	"endpoints":             {endpoint: `/openidm/config?_queryFilter=_id+sw+"endpoint"`},
	"email":                 {endpoint: `/openidm/config?_queryFilter=_id co "emailTemplate"`},
	"privileges":            {endpoint: `/openidm/config?_queryFilter=_id co "privilege"`},
	"environment_secrets":   {endpoint: "/environment/secrets"},
	"environment_variables": {endpoint: "/environment/variables"},
}

// Resolve returns the endpoint and optional response filter for a
// collection name. Unknown names resolve to ok=false; callers treat that as
// a reportable condition, not an error.
func Resolve(collection, realm string) (string, ResponseFilter, bool) {
	e, ok := endpoints[strings.ToLower(collection)]
	if !ok {
		return "", nil, false
	}
	if realm == "" {
		realm = DefaultRealm
	}
	endpoint := e.endpoint
	if e.realmed {
		endpoint = fmt.Sprintf(e.endpoint, realm)
	}
	return endpoint, e.filter, true
}

// Collections returns the known collection names. Intended for CLI help and
// validation messages.
func Collections() []string {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	return names
}

// DecodeScriptResponse decodes the base64-encoded "script" field of every
// script item into an array of source lines, making exported scripts
// human-readable. Items whose field cannot be decoded keep their original
// value.
func DecodeScriptResponse(response interface{}) interface{} {
	switch data := response.(type) {
	case map[string]interface{}:
		if list, ok := data["result"].([]interface{}); ok {
			for _, raw := range list {
				if obj, isObj := raw.(map[string]interface{}); isObj {
					decodeScriptField(obj)
				}
			}
			return data
		}
		decodeScriptField(data)
		return data
	case []interface{}:
		for _, raw := range data {
			if obj, isObj := raw.(map[string]interface{}); isObj {
				decodeScriptField(obj)
			}
		}
		return data
	default:
		return response
	}
}

func decodeScriptField(obj map[string]interface{}) {
	encoded, ok := obj["script"].(string)
	if !ok || encoded == "" {
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		logger.Warn("failed to decode script field for '%s': %v", models.ResolveName(models.Item(obj)), err)
		return
	}

	lines := strings.Split(strings.ReplaceAll(string(decoded), "\r\n", "\n"), "\n")
	asAny := make([]interface{}, len(lines))
	for i, line := range lines {
		asAny[i] = line
	}
	obj["script"] = asAny
}

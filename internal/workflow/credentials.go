package workflow

// Credential reference shapes, as they appear under a node's credentials map
// keyed by credential type:
//
//	server-resolved:       {"id": "42", "name": "Prod API"}
//	sanitized placeholder: {"name": "Prod API", "__type": "placeholder"}
//	preserve-instance:     {"name": "Prod API", "__preserveInstance": true}
//
// The repository never authors an id; the placeholder markers are written by
// the sanitizer and must be stripped before anything is sent to the server.

// IsPreserveInstance reports whether a credential entry carries the
// preserve-instance marker.
func IsPreserveInstance(entry any) bool {
	m, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	flag, ok := m[PreserveInstanceKey].(bool)
	return ok && flag
}

// IsPlaceholder reports whether a credential entry is a sanitized
// placeholder (either marker counts: a preserve-instance entry is still a
// placeholder when no remote credential exists to preserve).
func IsPlaceholder(entry any) bool {
	m, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	if t, ok := m[PlaceholderTypeKey].(string); ok && t == PlaceholderTypeValue {
		return true
	}
	return IsPreserveInstance(m)
}

// CleanCredentialEntry reduces a placeholder entry to just its display name
// so the server can (re)bind the credential by name. Non-placeholder entries
// pass through unchanged.
func CleanCredentialEntry(entry any) any {
	if !IsPlaceholder(entry) {
		return entry
	}
	m := entry.(map[string]any)
	cleaned := map[string]any{}
	if name, ok := m["name"]; ok {
		cleaned["name"] = name
	}
	return cleaned
}

// CleanNodeCredentials returns a copy of a node's credentials map with every
// placeholder reduced to its display name. A nil map stays nil.
func CleanNodeCredentials(creds map[string]any) map[string]any {
	if creds == nil {
		return nil
	}
	out := make(map[string]any, len(creds))
	for credType, entry := range creds {
		out[credType] = CleanCredentialEntry(entry)
	}
	return out
}

// CleanRecordCredentials strips placeholder markers from every node in the
// record, in place. Used before a create call, where there is no remote
// counterpart to preserve anything from.
func CleanRecordCredentials(r *Record) {
	for i := range r.Nodes {
		r.Nodes[i].Credentials = CleanNodeCredentials(r.Nodes[i].Credentials)
	}
}

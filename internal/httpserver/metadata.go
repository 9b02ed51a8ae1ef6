package httpserver

import (
	"net/http"

	"github.com/smolfarm/skyrdle/internal/httputil"
)

// clientMetadata is the OAuth client-metadata document served for the
// browser client. The identity provider fetches it by URL during the
// authorization flow, so every URL inside must be absolute.
func (s *Server) mountMetadata() {
	s.r.Get("/.well-known/client-metadata.json", s.handleClientMetadata(false))
	s.r.Get("/.well-known/client-metadata-native.json", s.handleClientMetadata(true))
}

func (s *Server) handleClientMetadata(native bool) http.HandlerFunc {
	origin := s.cfg.Server.PublicOrigin
	client := s.cfg.Server.ClientOrigin

	doc := map[string]any{
		"client_id":                  origin + "/.well-known/client-metadata.json",
		"client_name":                "Skyrdle",
		"client_uri":                 client,
		"redirect_uris":              []string{client + "/oauth/callback"},
		"grant_types":                []string{"authorization_code", "refresh_token"},
		"response_types":             []string{"code"},
		"scope":                      "atproto transition:generic",
		"application_type":           "web",
		"token_endpoint_auth_method": "none",
		"dpop_bound_access_tokens":   true,
	}
	if native {
		doc = map[string]any{
			"client_id":                  origin + "/.well-known/client-metadata-native.json",
			"client_name":                "Skyrdle",
			"client_uri":                 client,
			"redirect_uris":              []string{"farm.smol.skyrdle:/oauth/callback"},
			"grant_types":                []string{"authorization_code", "refresh_token"},
			"response_types":             []string{"code"},
			"scope":                      "atproto transition:generic",
			"application_type":           "native",
			"token_endpoint_auth_method": "none",
			"dpop_bound_access_tokens":   true,
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, doc)
	}
}

package collector

import "net/url"

// Route is one named endpoint for a logical request. URL is the logical
// URL; Relay turns it into the physical URL for each attempt.
type Route struct {
	Label string
	URL   string
	Relay Relay
}

// Physical returns the URL actually requested for logicalURL on this route.
func (r Route) Physical(logicalURL string) string {
	return r.Relay.Wrap(logicalURL)
}

// RouteTable is ordered by preference, first to last.
type RouteTable []Route

// Labels returns the route labels in order.
func (t RouteTable) Labels() []string {
	labels := make([]string, len(t))
	for i, r := range t {
		labels[i] = r.Label
	}
	return labels
}

// Relay wraps a logical URL into a physical URL through an intermediary.
// Prefix is prepended; when Encode is set the logical URL is query-escaped first.
type Relay struct {
	Label  string `yaml:"label" validate:"required"`
	Prefix string `yaml:"prefix"`
	Encode bool   `yaml:"encode"`
}

// DirectLabel names the route that calls the upstream without a relay.
const DirectLabel = "direct"

// DefaultRelays are public CORS relays, tried before the direct call.
func DefaultRelays() []Relay {
	return []Relay{
		{Label: "isomorphic", Prefix: "https://cors.isomorphic-git.org/"},
		{Label: "allorigins", Prefix: "https://api.allorigins.win/raw?url=", Encode: true},
		{Label: "thingproxy", Prefix: "https://thingproxy.freeboard.io/fetch/"},
		{Label: DirectLabel},
	}
}

// Wrap returns the physical URL for logicalURL.
func (r Relay) Wrap(logicalURL string) string {
	if r.Prefix == "" {
		return logicalURL
	}
	if r.Encode {
		return r.Prefix + url.QueryEscape(logicalURL)
	}
	return r.Prefix + logicalURL
}

// BuildRoutes derives the route table for one logical URL.
func BuildRoutes(logicalURL string, relays []Relay) RouteTable {
	if len(relays) == 0 {
		return RouteTable{{Label: DirectLabel, URL: logicalURL}}
	}
	table := make(RouteTable, 0, len(relays))
	for _, r := range relays {
		table = append(table, Route{Label: r.Label, URL: logicalURL, Relay: r})
	}
	return table
}

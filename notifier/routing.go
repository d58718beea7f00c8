// Copyright 2026 The Pulsewatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notifier

import (
	"github.com/mitchellh/mapstructure"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// Route pairs a predicate with the notifier that handles alerts
// matching it.
type Route struct {
	Match    func(*alert.Alert) bool
	Notifier Notifier
}

// RoutingSink evaluates Routes in order and delegates to the first
// match, falling back to Default when no route matches. With a nil
// Default, an alert no route matches is dropped and Notify returns
// nil.
type RoutingSink struct {
	SinkName string
	Routes   []Route
	Default  Notifier
}

// NewRoutingSink builds a RoutingSink.
func NewRoutingSink(name string, def Notifier, routes ...Route) *RoutingSink {
	return &RoutingSink{SinkName: name, Routes: routes, Default: def}
}

// RouteBySeverity builds a Route matching a single severity level.
func RouteBySeverity(sev alert.Severity, n Notifier) Route {
	return Route{Match: func(a *alert.Alert) bool { return a.Severity == sev }, Notifier: n}
}

// RouteByLabel builds a Route matching alerts whose label key equals
// value.
func RouteByLabel(key, value string, n Notifier) Route {
	return Route{Match: func(a *alert.Alert) bool { return a.Labels[key] == value }, Notifier: n}
}

// RouteConfig is the declarative shape a routing rule takes in a
// generic config map, before it is resolved against a set of named
// notifiers into a live Route.
type RouteConfig struct {
	Severity string
	Label    string
	Value    string
	Notifier string
}

// DecodeRouteConfigs decodes a slice of generic maps (as loaded from
// YAML) into RouteConfigs.
func DecodeRouteConfigs(raw []map[string]any) ([]RouteConfig, error) {
	var cfgs []RouteConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfgs,
	})
	if err != nil {
		return nil, pulseerr.Wrap(pulseerr.InvalidArgument, "notifier.DecodeRouteConfigs", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, pulseerr.Wrap(pulseerr.InvalidArgument, "notifier.DecodeRouteConfigs", err)
	}
	return cfgs, nil
}

// ResolveRoutes turns RouteConfigs into live Routes by looking up each
// one's notifier name in the given registry. A RouteConfig naming an
// unregistered notifier is skipped.
func ResolveRoutes(cfgs []RouteConfig, registry map[string]Notifier) []Route {
	routes := make([]Route, 0, len(cfgs))
	for _, c := range cfgs {
		n, ok := registry[c.Notifier]
		if !ok {
			continue
		}
		switch {
		case c.Severity != "":
			routes = append(routes, RouteBySeverity(parseSeverity(c.Severity), n))
		case c.Label != "":
			routes = append(routes, RouteByLabel(c.Label, c.Value, n))
		}
	}
	return routes
}

func parseSeverity(s string) alert.Severity {
	switch s {
	case "critical":
		return alert.SeverityCritical
	case "warning":
		return alert.SeverityWarning
	default:
		return alert.SeverityInfo
	}
}

// Name implements Notifier.
func (s *RoutingSink) Name() string { return s.SinkName }

// IsReady implements Notifier.
func (s *RoutingSink) IsReady() bool {
	for _, r := range s.Routes {
		if r.Notifier.IsReady() {
			return true
		}
	}
	return s.Default != nil && s.Default.IsReady()
}

func (s *RoutingSink) resolve(a *alert.Alert) Notifier {
	for _, r := range s.Routes {
		if r.Match(a) {
			return r.Notifier
		}
	}
	return s.Default
}

// Notify implements Notifier.
func (s *RoutingSink) Notify(a *alert.Alert) error {
	n := s.resolve(a)
	if n == nil {
		return nil
	}
	return n.Notify(a)
}

// NotifyGroup routes each alert in the group individually, since
// different alerts in the same group may resolve to different
// notifiers.
func (s *RoutingSink) NotifyGroup(g *alert.AlertGroup) error {
	for _, a := range g.Alerts {
		if err := s.Notify(a); err != nil {
			return err
		}
	}
	return nil
}

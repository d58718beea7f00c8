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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/mapstructure"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/pulsesecret"
)

// HTTPSender is the contract a webhook sink needs to actually deliver
// a request; production code supplies a real HTTP client, tests
// supply a closure.
type HTTPSender func(url, method string, headers map[string]string, body string) error

// WebhookConfig configures a WebhookSink.
type WebhookConfig struct {
	URL          string
	Method       string
	Headers      map[string]pulsesecret.String
	MaxRetries   uint64
	RetryDelay   time.Duration
	SendResolved bool
	ContentType  string
}

// Validate reports whether the config is usable.
func (c *WebhookConfig) Validate() bool {
	return c.URL != ""
}

// DecodeWebhookConfig decodes a generic map (as loaded from YAML) into
// a WebhookConfig, converting duration strings like "5s" for
// RetryDelay along the way.
func DecodeWebhookConfig(raw map[string]any) (WebhookConfig, error) {
	var cfg WebhookConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, pulseerr.Wrap(pulseerr.InvalidArgument, "notifier.DecodeWebhookConfig", err)
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, pulseerr.Wrap(pulseerr.InvalidArgument, "notifier.DecodeWebhookConfig", err)
	}
	return cfg, nil
}

// WebhookSink formats an alert or group and POSTs it through an
// injected HTTPSender, retrying with a fixed delay up to MaxRetries
// times.
type WebhookSink struct {
	Config     WebhookConfig
	Formatter  Formatter
	HTTPSender HTTPSender
}

// NewWebhookSink builds a WebhookSink. A nil formatter defaults to
// JSONFormatter.
func NewWebhookSink(cfg WebhookConfig, formatter Formatter) *WebhookSink {
	if formatter == nil {
		formatter = JSONFormatter{}
	}
	if cfg.Method == "" {
		cfg.Method = "POST"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/json"
	}
	return &WebhookSink{Config: cfg, Formatter: formatter}
}

// Name implements Notifier.
func (s *WebhookSink) Name() string { return "webhook:" + s.Config.URL }

// IsReady implements Notifier.
func (s *WebhookSink) IsReady() bool {
	return s.Config.Validate() && s.HTTPSender != nil
}

// Notify implements Notifier.
func (s *WebhookSink) Notify(a *alert.Alert) error {
	if !s.Config.SendResolved && a.State == alert.Resolved {
		return nil
	}
	return s.sendWithRetry(s.Formatter.Format(a))
}

// NotifyGroup implements Notifier.
func (s *WebhookSink) NotifyGroup(g *alert.AlertGroup) error {
	return s.sendWithRetry(s.Formatter.FormatGroup(g))
}

func (s *WebhookSink) sendWithRetry(payload string) error {
	if s.HTTPSender == nil {
		return pulseerr.New(pulseerr.OperationFailed, "notifier.WebhookSink.Notify", "no HTTP sender configured")
	}

	headers := make(map[string]string, len(s.Config.Headers)+1)
	for k, v := range s.Config.Headers {
		headers[k] = v.Reveal()
	}
	headers["Content-Type"] = s.Config.ContentType

	op := func() error {
		return s.HTTPSender(s.Config.URL, s.Config.Method, headers, payload)
	}

	delay := s.Config.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), s.Config.MaxRetries)

	if err := backoff.Retry(op, policy); err != nil {
		return pulseerr.Wrap(pulseerr.RetryAttemptsExhausted, "notifier.WebhookSink.Notify", err)
	}
	return nil
}

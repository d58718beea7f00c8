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

// Package pulseconfig holds the validated configuration surfaces
// components enumerate (alert manager, rule, aggregator, deduplicator,
// cooldown tracker, storage, database, retention policy, adaptive
// controller), all checked through one shared validator instance the
// way confgenerator validates the Ops Agent's UnifiedConfig.
package pulseconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	yaml "github.com/goccy/go-yaml"

	"github.com/pulsewatch/pulsewatch/pulseerr"
)

var validate = validator.New()

// Validate runs struct-tag validation on cfg and, on failure, returns
// a *pulseerr.Error with Kind ValidationFailed naming every failing
// field.
func Validate(op string, cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok {
			var msgs []string
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return pulseerr.New(pulseerr.ValidationFailed, op, strings.Join(msgs, "; "))
		}
		return pulseerr.Wrap(pulseerr.ValidationFailed, op, err)
	}
	return nil
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*out = ve
	return true
}

// LoadYAML reads path and decodes it into dst, the one filesystem
// touchpoint this package allows — a convenience for embedders who
// keep their config on disk. It never interprets flags or env vars;
// that remains the embedder's job.
func LoadYAML(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return pulseerr.Wrap(pulseerr.ParseError, "LoadYAML", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return pulseerr.Wrap(pulseerr.ParseError, "LoadYAML", err)
	}
	return nil
}

// Copyright 2025 Arcade Team
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

package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sistemakontrol/kontrol/pkg/metrics"
)

// RequestMetrics counts requests by method and final status.
func RequestMetrics(k *metrics.Kontrol) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if k == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		k.HTTPRequests.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()
		k.HTTPLatency.WithLabelValues(c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

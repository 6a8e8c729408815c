// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package main provides the Vigil HTTP server
//
// @title Vigil Forensics API
// @version 1.0
// @description Search, evidence review, annotation and disposition of detected safety violations.
// @description
// @description ## Authentication
// @description
// @description Endpoints require a bearer JWT unless the server runs with AUTH_MODE=none.
// @description Use `/api/v1/auth/login` to obtain a development token.
// @description
// @description ## Evidence
// @description
// @description Evidence downloads serve the blurred rendition by default. Original media
// @description requires the evidence:original permission and every access is audited.
// @description
// @description ## Rate Limiting
// @description
// @description Requests are limited per client IP; exceeding the limit returns 429 with
// @description a RATE_LIMIT_EXCEEDED error envelope.
//
// @contact.name Vigil
// @contact.url https://github.com/tomtom215/vigil
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token: "Bearer <token>"
package main

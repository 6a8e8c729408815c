// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package review

import (
	"context"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// Backend is the forensics API as seen by a session. *client.Client
// implements it.
type Backend interface {
	Search(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error)
	GetViolation(ctx context.Context, id string) (*models.Violation, error)
	DownloadEvidence(ctx context.Context, violationID, evidenceID string, revealOriginal bool) (models.DownloadTicket, error)
	AddComment(ctx context.Context, violationID, content string) (models.Comment, error)
	AcknowledgeComment(ctx context.Context, violationID, commentID string) (models.Comment, error)
	MarkFalsePositive(ctx context.Context, id, reason string) (*models.Violation, error)
	UnmarkFalsePositive(ctx context.Context, id string) (*models.Violation, error)
	Resolve(ctx context.Context, id string) (*models.Violation, error)
	Reopen(ctx context.Context, id string) (*models.Violation, error)
}

// Local adapts an in-process engine to Backend, acting as auth.
func Local(engine *forensics.Engine, auth forensics.AuthContext) Backend {
	return &localBackend{engine: engine, auth: auth}
}

type localBackend struct {
	engine *forensics.Engine
	auth   forensics.AuthContext
}

func (b *localBackend) Search(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error) {
	return b.engine.SearchViolations(ctx, b.auth, spec)
}

func (b *localBackend) GetViolation(ctx context.Context, id string) (*models.Violation, error) {
	return b.engine.GetViolation(ctx, b.auth, id)
}

func (b *localBackend) DownloadEvidence(ctx context.Context, violationID, evidenceID string, revealOriginal bool) (models.DownloadTicket, error) {
	return b.engine.DownloadEvidence(ctx, b.auth, violationID, evidenceID, revealOriginal)
}

func (b *localBackend) AddComment(ctx context.Context, violationID, content string) (models.Comment, error) {
	return b.engine.AddComment(ctx, b.auth, violationID, content)
}

func (b *localBackend) AcknowledgeComment(ctx context.Context, violationID, commentID string) (models.Comment, error) {
	return b.engine.AcknowledgeComment(ctx, b.auth, violationID, commentID)
}

func (b *localBackend) MarkFalsePositive(ctx context.Context, id, reason string) (*models.Violation, error) {
	return b.engine.MarkFalsePositive(ctx, b.auth, id, reason)
}

func (b *localBackend) UnmarkFalsePositive(ctx context.Context, id string) (*models.Violation, error) {
	return b.engine.UnmarkFalsePositive(ctx, b.auth, id)
}

func (b *localBackend) Resolve(ctx context.Context, id string) (*models.Violation, error) {
	return b.engine.Resolve(ctx, b.auth, id)
}

func (b *localBackend) Reopen(ctx context.Context, id string) (*models.Violation, error) {
	return b.engine.Reopen(ctx, b.auth, id)
}

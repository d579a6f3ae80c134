// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

var (
	// ErrIncompleteTemplate is returned by Save when the name,
	// description or SQL is empty. No request has been made.
	ErrIncompleteTemplate = errors.New("template name, description and SQL are all required")

	// ErrUnknownTemplate is returned by Edit for an ID not in the list.
	ErrUnknownTemplate = errors.New("template not found")

	// ErrFetch wraps list fetch failures, including the refetch that
	// follows a successful save or delete.
	ErrFetch = errors.New("fetch templates")
)

// IncompleteError lists the empty form fields.
type IncompleteError struct {
	Fields []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s (missing: %s)", ErrIncompleteTemplate.Error(), strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrIncompleteTemplate) true.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteTemplate
}

// Service is the template CRUD backend.
type Service interface {
	ListTemplates(ctx context.Context) ([]model.Template, error)
	CreateTemplate(ctx context.Context, t model.Template) (model.Template, error)
	UpdateTemplate(ctx context.Context, t model.Template) (model.Template, error)
	DeleteTemplate(ctx context.Context, id int) error
}

// =============================================================================
// FORM
// =============================================================================

// Form is the edit form. ID zero means a new template.
type Form struct {
	ID          int
	Name        string `validate:"required"`
	Description string `validate:"required"`
	SQL         string `validate:"required"`
}

// IsNew reports whether saving the form creates a template.
func (f Form) IsNew() bool {
	return f.ID == 0
}

// IsEmpty reports whether the form is reset and untracked.
func (f Form) IsEmpty() bool {
	return f == Form{}
}

func (f Form) trimmed() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.SQL = strings.TrimSpace(f.SQL)
	return f
}

func (f Form) template() model.Template {
	return model.Template{ID: f.ID, Name: f.Name, Description: f.Description, SQL: f.SQL}
}

func formFrom(t model.Template) Form {
	return Form{ID: t.ID, Name: t.Name, Description: t.Description, SQL: t.SQL}
}

// =============================================================================
// PANEL
// =============================================================================

// Panel holds the template list cache and the edit form. It is safe for
// concurrent use; network calls are made without holding the lock.
type Panel struct {
	svc      Service
	validate *validator.Validate

	mu     sync.Mutex
	list   []model.Template
	loaded bool
	form   Form
}

// NewPanel creates a panel backed by svc. The list is empty until the
// first successful Refresh.
func NewPanel(svc Service) *Panel {
	return &Panel{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Refresh fetches the full list. On failure the cached list is kept.
func (p *Panel) Refresh(ctx context.Context) error {
	list, err := p.svc.ListTemplates(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("template list fetch failed")
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}

	p.mu.Lock()
	p.list = list
	p.loaded = true
	p.mu.Unlock()
	return nil
}

// Templates returns a copy of the cached list.
func (p *Panel) Templates() []model.Template {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Template, len(p.list))
	copy(out, p.list)
	return out
}

// Loaded reports whether a list fetch has ever succeeded.
func (p *Panel) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Find returns the cached template with id.
func (p *Panel) Find(id int) (model.Template, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.find(id)
}

func (p *Panel) find(id int) (model.Template, bool) {
	for _, t := range p.list {
		if t.ID == id {
			return t, true
		}
	}
	return model.Template{}, false
}

// Form returns the current form contents.
func (p *Panel) Form() Form {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Editing returns the ID of the template loaded in the form, if any.
func (p *Panel) Editing() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form.ID, p.form.ID != 0
}

// Edit loads the cached template with id into the form.
func (p *Panel) Edit(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTemplate, id)
	}
	p.form = formFrom(t)
	return nil
}

// SetForm replaces the form contents.
func (p *Panel) SetForm(f Form) {
	p.mu.Lock()
	p.form = f
	p.mu.Unlock()
}

// UpdateForm edits the form in place.
func (p *Panel) UpdateForm(fn func(*Form)) {
	p.mu.Lock()
	fn(&p.form)
	p.mu.Unlock()
}

// ResetForm empties the form and stops tracking any template.
func (p *Panel) ResetForm() {
	p.SetForm(Form{})
}

// Validate checks the form without saving it.
func (p *Panel) Validate() error {
	return p.check(p.Form().trimmed())
}

func (p *Panel) check(f Form) error {
	err := p.validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = strings.ToLower(fe.Field())
	}
	return &IncompleteError{Fields: fields}
}

// Save creates or updates the template in the form, then refetches the
// list and resets the form. Validation happens before any request. If the
// save succeeds but the refetch fails, the saved template is returned
// together with the refetch error.
func (p *Panel) Save(ctx context.Context) (model.Template, error) {
	form := p.Form().trimmed()
	if err := p.check(form); err != nil {
		return model.Template{}, err
	}

	var (
		saved model.Template
		err   error
	)
	if form.IsNew() {
		saved, err = p.svc.CreateTemplate(ctx, form.template())
	} else {
		saved, err = p.svc.UpdateTemplate(ctx, form.template())
	}
	if err != nil {
		log.Warn().Err(err).Int("id", form.ID).Msg("template save failed")
		return model.Template{}, fmt.Errorf("save template: %w", err)
	}
	log.Info().Int("id", saved.ID).Str("name", saved.Name).Bool("created", form.IsNew()).Msg("template saved")

	refreshErr := p.Refresh(ctx)
	p.ResetForm()
	return saved, refreshErr
}

// Delete removes the template with id, then refetches the list. If the
// deleted template is loaded in the form, the form is reset.
func (p *Panel) Delete(ctx context.Context, id int) error {
	if err := p.svc.DeleteTemplate(ctx, id); err != nil {
		log.Warn().Err(err).Int("id", id).Msg("template delete failed")
		return fmt.Errorf("delete template: %w", err)
	}
	log.Info().Int("id", id).Msg("template deleted")

	refreshErr := p.Refresh(ctx)

	p.mu.Lock()
	if p.form.ID == id {
		p.form = Form{}
	}
	p.mu.Unlock()
	return refreshErr
}

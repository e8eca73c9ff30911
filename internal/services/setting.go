package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/logging"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/repomanager"
)

// SettingInput is the typed form of a setting document.
type SettingInput struct {
	Name        string
	Value       any
	Type        string
	Description string
	Pets        []string
}

func (in SettingInput) doc() map[string]any {
	doc := map[string]any{"name": in.Name}
	if in.Value != nil {
		doc["value"] = in.Value
	}
	if in.Type != "" {
		doc["type"] = in.Type
	}
	if in.Description != "" {
		doc["description"] = in.Description
	}
	if in.Pets != nil {
		doc["pets"] = in.Pets
	}
	return doc
}

// SettingFilter narrows FindSettings.
type SettingFilter struct {
	Type string
}

type SettingService struct {
	base
}

func NewSettingService(conn *dbx.Conn, m repomanager.RepositoryManager, log logging.Logger) *SettingService {
	return &SettingService{base: newBase(conn, m, log)}
}

// CreateSetting validates and persists a setting.
func (s *SettingService) CreateSetting(ctx context.Context, in SettingInput) (*models.Setting, error) {
	return s.CreateSettingDoc(ctx, in.doc())
}

// CreateSettingDoc validates a raw setting document against the setting
// schema and persists it. Every schema failure is returned at once as
// common.ValidationErrors. A duplicate name yields ErrConflict.
func (s *SettingService) CreateSettingDoc(ctx context.Context, doc map[string]any) (*models.Setting, error) {
	if err := models.SettingSchema.Validate(doc); err != nil {
		return nil, err
	}

	setting, err := models.SettingFromDoc(doc)
	if err != nil {
		return nil, common.NewValidationError("", doc, "%v", err)
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	created, err := s.repomanager.Settings(db).Create(ctx, setting)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: a setting named %s already exists", common.ErrConflict, setting.Name)
		}
		return nil, fmt.Errorf("error creating setting: %w", err)
	}

	s.log.Info(ctx, "setting created", "name", created.Name, "type", created.Type)
	return created, nil
}

func normalizeSettingName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetSetting returns the setting with the given name. Names are matched
// after trimming and lower-casing, as they are stored.
func (s *SettingService) GetSetting(ctx context.Context, name string) (*models.Setting, error) {
	name = normalizeSettingName(name)
	if name == "" {
		return nil, common.NewValidationError("name", name, "setting name is empty")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	setting, err := s.repomanager.Settings(db).GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no setting named %s", common.ErrNotFound, name)
		}
		return nil, fmt.Errorf("error loading setting: %w", err)
	}
	return setting, nil
}

// FindSettings lists settings, optionally of one type.
func (s *SettingService) FindSettings(ctx context.Context, f SettingFilter) ([]*models.Setting, error) {
	typ := normalizeSettingName(f.Type)
	if typ != "" && !isSettingType(typ) {
		return nil, common.NewValidationError("type", f.Type, "Illegal setting type `%s`", f.Type)
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Settings(db).Find(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("error searching settings: %w", err)
	}
	return list, nil
}

func isSettingType(typ string) bool {
	for _, t := range models.SettingTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// UpdateValue replaces the value of an existing setting.
func (s *SettingService) UpdateValue(ctx context.Context, name string, value any) (*models.Setting, error) {
	name = normalizeSettingName(name)
	if name == "" {
		return nil, common.NewValidationError("name", name, "setting name is empty")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	setting, err := s.repomanager.Settings(db).UpdateValue(ctx, name, value)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no setting named %s", common.ErrNotFound, name)
		}
		return nil, fmt.Errorf("error updating setting: %w", err)
	}

	s.log.Info(ctx, "setting updated", "name", name)
	return setting, nil
}

// DeleteSetting removes the named setting.
func (s *SettingService) DeleteSetting(ctx context.Context, name string) error {
	name = normalizeSettingName(name)
	if name == "" {
		return common.NewValidationError("name", name, "setting name is empty")
	}

	db, err := s.alive()
	if err != nil {
		return err
	}

	if err := s.repomanager.Settings(db).Delete(ctx, name); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: no setting named %s", common.ErrNotFound, name)
		}
		return fmt.Errorf("error deleting setting: %w", err)
	}

	s.log.Info(ctx, "setting deleted", "name", name)
	return nil
}

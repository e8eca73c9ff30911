package cli

import (
	"context"

	"github.com/sasset/core/internal/services"
)

func (a *App) SettingCreate(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "setting name"); err != nil {
		return err
	}

	in := services.SettingInput{Name: args[0]}
	if len(args) > 1 {
		in.Value = args[1]
	}
	if len(args) > 2 {
		in.Type = args[2]
	}

	s, err := a.settings.CreateSetting(ctx, in)
	if err != nil {
		return err
	}
	return a.printJSON(s)
}

func (a *App) SettingGet(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "setting name"); err != nil {
		return err
	}
	s, err := a.settings.GetSetting(ctx, args[0])
	if err != nil {
		return err
	}
	return a.printJSON(s)
}

func (a *App) SettingList(ctx context.Context, args []string) error {
	var f services.SettingFilter
	if len(args) > 0 {
		f.Type = args[0]
	}
	list, err := a.settings.FindSettings(ctx, f)
	if err != nil {
		return err
	}
	return a.printJSON(list)
}
